package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/berfenger/froniuslights/internal/config"
	"github.com/berfenger/froniuslights/internal/core/domain"

	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NatsInterface is the subset of *nats.Conn used by the publisher
type NatsInterface interface {
	Publish(subj string, data []byte) error
}

// ensure interface compliance
var _ NatsInterface = (*nats.Conn)(nil)

type ReadingMessage struct {
	Accessory string   `json:"accessory"`
	Name      string   `json:"name"`
	Available bool     `json:"available"`
	On        *bool    `json:"on,omitempty"`
	Level     *float64 `json:"level,omitempty"`
	Magnitude *float64 `json:"magnitude,omitempty"`
	Error     string   `json:"error,omitempty"`
	Time      string   `json:"time"`
}

// Publisher forwards every accessory update on the event stream to NATS
type Publisher struct {
	conn          NatsInterface
	subjectPrefix string
	eventStream   *eventstream.EventStream
	subscription  *eventstream.Subscription
	logger        *zap.Logger
}

func Connect(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("froniuslights"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	return nc, nil
}

func NewPublisher(conn NatsInterface, subjectPrefix string, eventStream *eventstream.EventStream, logger *zap.Logger) *Publisher {
	return &Publisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		eventStream:   eventStream,
		logger:        logger.With(zap.String("component", "nats")),
	}
}

func (p *Publisher) Start() {
	if p.subscription != nil {
		return
	}
	p.subscription = p.eventStream.Subscribe(func(evt any) {
		if update, ok := evt.(domain.AccessoryUpdateEvent); ok {
			if err := p.publish(update); err != nil {
				p.logger.Warn("publish reading failed", zap.String("accessory", update.Accessory.Id), zap.Error(err))
			}
		}
	})
}

func (p *Publisher) Stop() {
	if p.subscription != nil {
		p.eventStream.Unsubscribe(p.subscription)
		p.subscription = nil
	}
}

func (p *Publisher) Subject(accessoryId string) string {
	return fmt.Sprintf("%s.%s.state", p.subjectPrefix, accessoryId)
}

func (p *Publisher) publish(update domain.AccessoryUpdateEvent) error {
	data, err := json.Marshal(NewReadingMessage(update))
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(update.Accessory.Id), data)
}

func NewReadingMessage(update domain.AccessoryUpdateEvent) ReadingMessage {
	r := update.Reading
	msg := ReadingMessage{
		Accessory: update.Accessory.Id,
		Name:      update.Accessory.Name,
		Available: r.Available(),
		Time:      update.Time.UTC().Format(time.RFC3339),
	}
	if on, err := r.On.Get(); err == nil {
		msg.On = &on
	} else {
		msg.Error = err.Error()
	}
	if level, err := r.Level.Get(); err == nil {
		msg.Level = &level
	}
	if magnitude, err := r.Magnitude.Get(); err == nil {
		msg.Magnitude = &magnitude
	}
	return msg
}

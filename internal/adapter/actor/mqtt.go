package actor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/berfenger/froniuslights/internal/config"
	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/internal/mqtt"
	"github.com/berfenger/froniuslights/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config       *config.Config
	behavior     actor.Behavior
	stash        *actorutil.Stash
	client       *mqtt.MQTTClient
	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription
	pending      int
	testSink     chan<- any
	logger       *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to light command topics
		state.client.SubscribeToCommandTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := state.client.ParseMQTTCommand(m)
			if err == nil && cmd != nil {
				ctx.Send(ctx.Self(), ParsedCommand{Command: cmd})
			}
		}, func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, start forwarding accessory updates
		state.logger.Debug("mqtt@starting subscribed")
		state.subscribeEvents(ctx)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishAccessoryStateRequest:
		state.logger.Debug("mqtt@default PublishAccessoryStateRequest", zap.String("accessory", msg.Accessory.Id))
		state.publishAccessoryState(ctx, msg.Accessory, msg.Reading, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery")
		err := state.PublishHomeAssistantDiscovery(msg.Lights, msg.Sensors)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
		})
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// subscribeEvents forwards every accessory update on the event stream to this actor
func (state *MQTTActor) subscribeEvents(ctx actor.Context) {
	if state.eventStream == nil || state.subscription != nil {
		return
	}
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	state.subscription = state.eventStream.Subscribe(func(evt any) {
		if e, ok := evt.(domain.AccessoryUpdateEvent); ok {
			root.Send(self, domain.PublishAccessoryStateRequest{
				Accessory: e.Accessory,
				Reading:   e.Reading,
			})
		}
	})
}

// readingMessages maps a reading to the light, brightness, sensor and
// availability topics. An unavailable reading only marks the accessory offline.
func readingMessages(client *mqtt.MQTTClient, info domain.AccessoryInfo, reading domain.Reading) []rawMessage {
	if !reading.Available() {
		return []rawMessage{{
			topic:   client.LightAvailabilityTopic(info.Id),
			message: mqtt.MQTT_PAYLOAD_OFFLINE,
			retain:  true,
		}}
	}

	messages := []rawMessage{{
		topic:   client.LightAvailabilityTopic(info.Id),
		message: mqtt.MQTT_PAYLOAD_ONLINE,
		retain:  true,
	}}
	if on, err := reading.On.Get(); err == nil {
		messages = append(messages, rawMessage{
			topic:   client.LightStateTopic(info.Id),
			message: bool2MQTTPayload(on),
		})
	}
	if level, err := reading.Level.Get(); err == nil {
		messages = append(messages, rawMessage{
			topic:   client.LightBrightnessStateTopic(info.Id),
			message: fmt.Sprintf("%.0f", level),
		})
	}
	if magnitude, err := reading.Magnitude.Get(); err == nil {
		messages = append(messages, rawMessage{
			topic:   client.SensorStateTopic(info.Id),
			message: fmt.Sprintf("%.2f", magnitude),
		})
	}
	return messages
}

func (state *MQTTActor) publishAccessoryState(ctx actor.Context, info domain.AccessoryInfo, reading domain.Reading, replyTo *actor.PID) {
	messages := readingMessages(state.client, info, reading)
	state.pending = len(messages)
	for i, msg := range messages {
		state.logger.Sugar().Debugf("mqtt@publish: accessory publish %s => %s", msg.topic, msg.message)
		// only the last result answers the request
		var target *actor.PID
		if i == len(messages)-1 {
			target = replyTo
		}
		state.client.Publish(msg.topic, msg.message, 1, msg.retain, func(err error) {
			ctx.Send(ctx.Self(), publishResult{ReplyTo: target, Error: err})
		}, 5*time.Second)
	}
	state.behavior.BecomeStacked(state.EventPublishResultReceive)
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Sugar().Debugf("mqtt@publish: message publish %s => %s", topic, payload)
	state.client.Publish(topic, payload, 1, retain, func(err error) {
		ctx.Send(ctx.Self(), publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.MessagePublishResultReceive)
}

func (state *MQTTActor) MessagePublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ErrorResponse(msg.Error),
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) EventPublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishAccessoryStateResponse{
				ActorResponseMixIn: domain.ErrorResponse(msg.Error),
			})
		}
		state.pending--
		if state.pending <= 0 {
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		}
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(lights []domain.GenericLight, sensors []domain.GenericSensor) error {
	for i := range lights {
		msg := mqtt.GenericLightToHADiscoveryMessage(state.client, lights[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoveryLightTopic(state.client, lights[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range sensors {
		msg := mqtt.GenericSensorToHADiscoveryMessage(state.client, sensors[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoverySensorTopic(state.client, sensors[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	return nil
}

func (state *MQTTActor) stop() {
	if state.subscription != nil {
		state.eventStream.Unsubscribe(state.subscription)
		state.subscription = nil
	}
	if state.client != nil {
		state.logger.Debug("mqtt: disconnect")
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

// Dummy actor, never connects. Requests it receives are forwarded to sink when set.
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, sink chan<- any, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		testSink:    sink,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
		state.subscribeEvents(ctx)
	case *actor.Stopping:
		if state.subscription != nil {
			state.eventStream.Unsubscribe(state.subscription)
			state.subscription = nil
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@dummy ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishAccessoryStateRequest:
		state.sink(msg)
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishAccessoryStateResponse{})
	case domain.PublishDiscoveryRequest:
		state.sink(msg)
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{})
	case domain.PublishMessageRequest:
		state.sink(msg)
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishMessageResponse{})
	case ParsedCommand:
		ctx.Send(ctx.Parent(), msg)
	}
}

func (state *MQTTActor) sink(msg any) {
	if state.testSink == nil {
		return
	}
	select {
	case state.testSink <- msg:
	default:
	}
}

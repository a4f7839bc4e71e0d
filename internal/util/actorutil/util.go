package actorutil

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel, zap.PanicLevel, zap.FatalLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps a light command to the set handler request
// of the addressed accessory.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.SetCharacteristicRequest, error) {
	switch cmd.Command {
	case mqtt.COMMAND_SET:
		switch strings.ToUpper(strings.TrimSpace(cmd.Payload)) {
		case mqtt.MQTT_PAYLOAD_ON:
			return domain.SetCharacteristicRequest{Characteristic: domain.CHARACTERISTIC_ON, Value: true}, nil
		case mqtt.MQTT_PAYLOAD_OFF:
			return domain.SetCharacteristicRequest{Characteristic: domain.CHARACTERISTIC_ON, Value: false}, nil
		}
		return domain.SetCharacteristicRequest{}, fmt.Errorf("invalid light state %q", cmd.Payload)
	case mqtt.COMMAND_BRIGHTNESS:
		value, err := strconv.ParseFloat(strings.TrimSpace(cmd.Payload), 64)
		if err != nil {
			return domain.SetCharacteristicRequest{}, fmt.Errorf("invalid brightness %q: %w", cmd.Payload, err)
		}
		return domain.SetCharacteristicRequest{Characteristic: domain.CHARACTERISTIC_BRIGHTNESS, Value: value}, nil
	}
	return domain.SetCharacteristicRequest{}, fmt.Errorf("unknown command %q", cmd.Command)
}

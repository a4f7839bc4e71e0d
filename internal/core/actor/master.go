package actor

import (
	"context"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/froniuslights/internal/adapter/actor"
	"github.com/berfenger/froniuslights/internal/config"
	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/internal/core/events"
	"github.com/berfenger/froniuslights/internal/core/port"
	"github.com/berfenger/froniuslights/internal/core/service"
	. "github.com/berfenger/froniuslights/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const (
	healthCheckTimeout = 1 * time.Second
	// identity resolution fetches two endpoints, each bounded by the client timeout
	identityTimeoutFactor = 2
)

// MQTTActorProvider builds the host transport actor. A nil provider disables MQTT.
type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	inverter           port.InverterService
	logic              port.MeteringLogic
	mqttActor          *actor.PID
	mqttActorProvider  MQTTActorProvider

	identity    domain.DeviceIdentity
	accessories []domain.AccessoryRef
	registered  bool

	logger *zap.Logger
}

type healthCheckResult struct {
	expected  map[string]bool
	received  int
	respondTo *actor.PID
}

type identityResolved struct {
	identity domain.DeviceIdentity
	err      error
}

func NewMasterOfPuppetsActor(config config.Config, inverter port.InverterService, eventStream *eventstream.EventStream,
	mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	logic := &service.DefaultMeteringLogic{}
	if config.PVMaxPower > 0 {
		logic.PVMaxPower = domain.Some(config.PVMaxPower)
	}
	act := &MasterOfPuppetsActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		logger:            ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:       eventStream,
		inverter:          inverter,
		logic:             logic,
		mqttActorProvider: mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		// start MQTT child
		if state.mqttActorProvider != nil {
			mqttActorPID, err := state.startMQTTActor(ctx)
			if err != nil {
				panic(err)
			}
			state.mqttActor = mqttActorPID
		}

		// resolve device identity, best effort
		inverter := state.inverter
		timeout := identityTimeoutFactor * state.config.Inverter.Timeout()
		NewBackgroundTask(ctx, func() (*identityResolved, error) {
			identityCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			identity, err := inverter.GetDeviceIdentity(identityCtx)
			return &identityResolved{identity: identity, err: err}, nil
		}).WithTimeout(timeout + pollTimeoutMargin).Recover(func(err error) identityResolved {
			return identityResolved{err: err}
		}).PipeTo(ctx.Self())

		state.behavior.Become(state.WaitingIdentityReceive)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) WaitingIdentityReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case identityResolved:
		if msg.err != nil {
			state.logger.Warn("master@identity device identity unavailable", zap.Error(msg.err))
			state.identity = domain.DeviceIdentity{}
		} else {
			state.identity = msg.identity
		}
		state.logger.Debug("master@identity resolved",
			zap.String("model", state.identity.Model.Or("")),
			zap.String("serial", state.identity.SerialNumber.Or("")))

		if err := state.startAccessories(ctx); err != nil {
			panic(err)
		}
		state.registerAccessories(ctx)

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@identity stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(state.childIds())
		state.currentHealthCheck.respondTo = ForRequest(msg).ReplyTo(ctx)

		if state.mqttActor != nil {
			state.requestHealth(ctx, state.mqttActor, domain.ACTOR_ID_MQTT)
		}
		for _, a := range state.accessories {
			state.requestHealth(ctx, (*actor.PID)(a.Ref), a.Info.Id)
		}

		ctx.SetReceiveTimeout(healthCheckTimeout)
		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.ListAccessoriesRequest:
		ForRequest(msg).Respond(ctx, domain.ListAccessoriesResponse{
			Identity:    state.identity,
			Accessories: state.accessories,
		})
	case adactor.ParsedCommand:
		// route light command to the accessory set handler
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command == nil {
			return
		}
		req, err := ParsedMQTTCommandToCommand(*msg.Command)
		if err != nil {
			state.logger.Warn("master@default invalid command", zap.Error(err))
			return
		}
		if pid := state.accessoryPID(msg.Command.AccessoryId); pid != nil {
			ctx.Send(pid, req)
		} else {
			state.logger.Warn("master@default command for unknown accessory", zap.String("accessory", msg.Command.AccessoryId))
		}
	case *actor.Terminated:
		state.logger.Warn("master@default child terminated", zap.String("who", msg.Who.Id))
	default:
		state.logger.Debug("master@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.finishHealthCheck(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.record(msg)
		if state.currentHealthCheck.allReceived() {
			state.finishHealthCheck(ctx)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) finishHealthCheck(ctx actor.Context) {
	ctx.CancelReceiveTimeout()
	state.currentHealthCheck.respond(ctx)
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

func (state *MasterOfPuppetsActor) requestHealth(ctx actor.Context, pid *actor.PID, id string) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, healthCheckTimeout/2), func(err error) any {
		return domain.ActorHealthResponse{
			Id:      id,
			Healthy: false,
		}
	})
}

// startAccessories spawns one accessory per enabled metering kind. The set is
// fixed for the lifetime of the actor.
func (state *MasterOfPuppetsActor) startAccessories(ctx actor.Context) error {
	if state.accessories != nil {
		return nil
	}

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 10*time.Second, decider)

	accessories := []domain.AccessoryRef{}
	for _, kind := range domain.EnabledMeteringKinds(state.config.Battery) {
		info := domain.NewAccessoryInfo(kind, state.identity)
		props := actor.PropsFromProducer(func() actor.Actor {
			return NewAccessoryActor(&state.config, info, state.inverter, state.logic, state.eventStream, state.logger)
		}, actor.WithSupervisor(supervisor))
		pid, err := ctx.SpawnNamed(props, AccessoryActorName(info))
		if err != nil {
			return err
		}
		accessories = append(accessories, domain.AccessoryRef{
			Info: info,
			Ref:  (*domain.ActorRef)(pid),
		})
	}
	state.accessories = accessories
	return nil
}

// registerAccessories announces the accessory set to Home Assistant, once
func (state *MasterOfPuppetsActor) registerAccessories(ctx actor.Context) {
	if state.registered || state.mqttActor == nil || !state.config.MQTT.HADiscoveryEnable {
		return
	}
	infos := make([]domain.AccessoryInfo, 0, len(state.accessories))
	for _, a := range state.accessories {
		infos = append(infos, a.Info)
	}
	ctx.Send(state.mqttActor, events.DiscoveryRequest(state.config.MQTT.BaseTopic, state.identity, infos))
	state.registered = true
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) accessoryPID(id string) *actor.PID {
	for _, a := range state.accessories {
		if a.Info.Id == id {
			return (*actor.PID)(a.Ref)
		}
	}
	return nil
}

func (state *MasterOfPuppetsActor) childIds() []string {
	var ids []string
	if state.mqttActor != nil {
		ids = append(ids, domain.ACTOR_ID_MQTT)
	}
	for _, a := range state.accessories {
		ids = append(ids, a.Info.Id)
	}
	return ids
}

func (state *healthCheckResult) reset(ids []string) {
	state.expected = make(map[string]bool, len(ids))
	for _, id := range ids {
		state.expected[id] = false
	}
	state.received = 0
	state.respondTo = nil
}

func (state *healthCheckResult) record(resp domain.ActorHealthResponse) {
	if _, ok := state.expected[resp.Id]; !ok {
		return
	}
	state.received++
	state.expected[resp.Id] = resp.Healthy
}

func (state *healthCheckResult) allReceived() bool {
	return state.received >= len(state.expected)
}

func (state *healthCheckResult) allHealthy() bool {
	for _, healthy := range state.expected {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   "idle",
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}

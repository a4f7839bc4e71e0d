package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/froniuslights/internal/config"
	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/internal/core/port"
	. "github.com/berfenger/froniuslights/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	pollTimeoutMargin = 500 * time.Millisecond

	ACCESSORY_STATE_IDLE    = "idle"
	ACCESSORY_STATE_POLLING = "polling"
)

// AccessoryActor exposes one metering kind. It polls the snapshot source
// once on start and then on every tick, keeps the last computed reading and
// answers characteristic requests from it.
type AccessoryActor struct {
	behavior    actor.Behavior
	stash       *Stash
	scheduler   *scheduler.TimerScheduler
	cancelTicks scheduler.CancelFunc

	info         domain.AccessoryInfo
	source       port.SnapshotSource
	logic        port.MeteringLogic
	eventStream  *eventstream.EventStream
	pollInterval time.Duration
	fetchTimeout time.Duration

	reading     domain.Reading
	pollStarted time.Time

	logger *zap.Logger
}

type pollTick struct {
}

type pollResult struct {
	snapshot *domain.Snapshot
	err      error
}

func NewAccessoryActor(config *config.Config, info domain.AccessoryInfo, source port.SnapshotSource, logic port.MeteringLogic,
	eventStream *eventstream.EventStream, logger *zap.Logger) *AccessoryActor {
	act := &AccessoryActor{
		behavior:     actor.NewBehavior(),
		stash:        &Stash{},
		info:         info,
		source:       source,
		logic:        logic,
		eventStream:  eventStream,
		pollInterval: config.PollIntervalDuration(),
		fetchTimeout: config.Inverter.Timeout(),
		reading:      domain.UnavailableReading(domain.ErrNoData),
		logger:       ActorLogger(AccessoryActorName(info), logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func AccessoryActorName(info domain.AccessoryInfo) string {
	return fmt.Sprintf("%s_%s", domain.ACTOR_ID_ACCESSORY, info.Id)
}

func (state *AccessoryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *AccessoryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("accessory@starting started")

		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.cancelTicks = state.scheduler.SendRepeatedly(state.pollInterval, state.pollInterval, ctx.Self(), pollTick{})

		state.behavior.Become(state.IdleReceive)
		// first poll right away, not after the first interval
		state.startPoll(ctx)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("accessory@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *AccessoryActor) IdleReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case pollTick:
		state.logger.Debug("accessory@idle tick")
		state.startPoll(ctx)
	case *actor.Stopping:
		state.stop()
	default:
		if !state.handleRequest(ctx, ACCESSORY_STATE_IDLE) {
			state.logger.Debug("accessory@idle default recv", zap.String("type", fmt.Sprintf("%T", msg)))
		}
	}
}

func (state *AccessoryActor) PollingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case pollResult:
		state.completePoll(msg)
		state.behavior.UnbecomeStacked()
	case pollTick:
		state.logger.Debug("accessory@polling previous poll still in flight, tick dropped")
	case *actor.Stopping:
		state.stop()
	default:
		if !state.handleRequest(ctx, ACCESSORY_STATE_POLLING) {
			state.logger.Debug("accessory@polling default recv", zap.String("type", fmt.Sprintf("%T", msg)))
		}
	}
}

// handleRequest answers the requests served in every state from the last reading
func (state *AccessoryActor) handleRequest(ctx actor.Context, stateName string) bool {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ForRequest(msg).Respond(ctx, domain.ActorHealthResponse{
			Id:      state.info.Id,
			Healthy: true,
			State:   stateName,
		})
	case domain.GetReadingRequest:
		ForRequest(msg).Respond(ctx, domain.GetReadingResponse{
			Accessory: state.info,
			Reading:   state.reading,
		})
	case domain.GetCharacteristicRequest:
		value, err := state.reading.Characteristic(msg.Characteristic)
		ForRequest(msg).Respond(ctx, domain.GetCharacteristicResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
			Characteristic:     msg.Characteristic,
			Value:              value,
		})
	case domain.SetCharacteristicRequest:
		// characteristics are derived from the inverter, writes are ignored
		state.logger.Debug("accessory set ignored", zap.String("characteristic", string(msg.Characteristic)), zap.Any("value", msg.Value))
		value, err := state.reading.Characteristic(msg.Characteristic)
		ForRequest(msg).Respond(ctx, domain.SetCharacteristicResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
			Characteristic:     msg.Characteristic,
			Value:              value,
		})
		// host may have changed its local copy, push the current state back
		state.publishReading()
	default:
		return false
	}
	return true
}

func (state *AccessoryActor) startPoll(ctx actor.Context) {
	source := state.source
	timeout := state.fetchTimeout
	state.pollStarted = time.Now()

	NewBackgroundTask(ctx, func() (*pollResult, error) {
		fetchCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snapshot, err := source.GetSnapshot(fetchCtx)
		return &pollResult{snapshot: snapshot, err: err}, nil
	}).WithTimeout(timeout + pollTimeoutMargin).Recover(func(err error) pollResult {
		return pollResult{err: err}
	}).PipeTo(ctx.Self())

	state.behavior.BecomeStacked(state.PollingReceive)
}

func (state *AccessoryActor) completePoll(result pollResult) {
	snapshot := result.snapshot
	if result.err != nil {
		state.logger.Warn("accessory@polling snapshot unavailable", zap.Error(result.err))
		snapshot = nil
	}
	state.reading = state.logic.Compute(snapshot, state.info.Kind)
	state.logger.Debug("accessory@polling reading",
		zap.Any("on", state.reading.On.Any()),
		zap.Any("level", state.reading.Level.Any()),
		zap.Any("magnitude", state.reading.Magnitude.Any()))

	state.publishReading()
	state.eventStream.Publish(domain.AccessoryPolledEvent{
		AccessoryId: state.info.Id,
		Duration:    time.Since(state.pollStarted),
		Error:       result.err,
	})
}

func (state *AccessoryActor) publishReading() {
	state.eventStream.Publish(domain.AccessoryUpdateEvent{
		Accessory: state.info,
		Reading:   state.reading,
		Time:      time.Now(),
	})
}

func (state *AccessoryActor) stop() {
	if state.cancelTicks != nil {
		state.cancelTicks()
		state.cancelTicks = nil
	}
}

package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLightCommands(t *testing.T) {

	assert := assert.New(t)

	req, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{AccessoryId: "import", Command: mqtt.COMMAND_SET, Payload: "ON"})
	assert.NoError(err)
	assert.Equal(domain.CHARACTERISTIC_ON, req.Characteristic)
	assert.Equal(true, req.Value)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{AccessoryId: "import", Command: mqtt.COMMAND_SET, Payload: "off"})
	assert.NoError(err)
	assert.Equal(false, req.Value)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{AccessoryId: "pv", Command: mqtt.COMMAND_BRIGHTNESS, Payload: "42"})
	assert.NoError(err)
	assert.Equal(domain.CHARACTERISTIC_BRIGHTNESS, req.Characteristic)
	assert.Equal(42.0, req.Value)

	_, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{Command: mqtt.COMMAND_SET, Payload: "maybe"})
	assert.Error(err)
	_, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{Command: mqtt.COMMAND_BRIGHTNESS, Payload: "bright"})
	assert.Error(err)
}

type taskResult struct {
	value int
	err   error
}

func TestBackgroundTaskPipesResult(t *testing.T) {

	require := require.New(t)

	as := NewActorSystemWithZapLogger(zap.NewNop())
	defer as.Shutdown()

	results := make(chan taskResult, 1)
	pid := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case string:
			NewBackgroundTask(ctx, func() (*taskResult, error) {
				return &taskResult{value: len(msg)}, nil
			}).PipeTo(ctx.Self())
		case taskResult:
			results <- msg
		}
	}))

	as.Root.Send(pid, "hello")

	select {
	case r := <-results:
		require.Equal(5, r.value)
	case <-time.After(2 * time.Second):
		require.Fail("no result piped")
	}
}

func TestBackgroundTaskRecoversTimeout(t *testing.T) {

	require := require.New(t)

	as := NewActorSystemWithZapLogger(zap.NewNop())
	defer as.Shutdown()

	results := make(chan taskResult, 1)
	pid := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case string:
			NewBackgroundTask(ctx, func() (*taskResult, error) {
				time.Sleep(time.Second)
				return &taskResult{value: 1}, nil
			}).WithTimeout(50 * time.Millisecond).Recover(func(err error) taskResult {
				return taskResult{err: err}
			}).PipeTo(ctx.Self())
		case taskResult:
			results <- msg
		}
	}))

	as.Root.Send(pid, "slow")

	select {
	case r := <-results:
		require.Error(r.err)
	case <-time.After(2 * time.Second):
		require.Fail("no result piped")
	}
}

func TestBackgroundTaskRun(t *testing.T) {

	assert := assert.New(t)

	task := &SafeBackgroundTask[int]{fn: func() (*int, error) { return nil, nil }}
	_, ok := task.Run()
	assert.False(ok, "nil result without recover")

	boom := errors.New("boom")
	task = &SafeBackgroundTask[int]{fn: func() (*int, error) { return nil, boom }}
	task.Recover(func(err error) int { return -1 })
	v, ok := task.Run()
	assert.True(ok)
	assert.Equal(-1, v)
}

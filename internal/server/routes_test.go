package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coreactor "github.com/berfenger/froniuslights/internal/core/actor"
	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/internal/util"
	"github.com/berfenger/froniuslights/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testInverter struct {
	snapshot *domain.Snapshot
	err      error
}

func (i testInverter) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	return i.snapshot, i.err
}

func (i testInverter) GetDeviceIdentity(ctx context.Context) (domain.DeviceIdentity, error) {
	return domain.DeviceIdentity{Model: domain.Some("Symo GEN24 10.0"), SerialNumber: domain.Some("28136344")}, nil
}

func newTestServer(t *testing.T, inverter testInverter) http.Handler {
	cfg := util.LoadTestConfig()
	cfg.Battery = false
	logger := zap.NewNop()

	as := actorutil.NewActorSystemWithZapLogger(logger)
	t.Cleanup(as.Shutdown)

	props := actor.PropsFromProducer(func() actor.Actor {
		return coreactor.NewMasterOfPuppetsActor(cfg, inverter, &eventstream.EventStream{}, nil, logger)
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "froniuslights_test_total", Help: "test"}))

	s := &Server{rootContext: as.Root, masterActor: pid, gatherer: reg}
	return s.RegisterRoutes()
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {

	h := newTestServer(t, testInverter{snapshot: &domain.Snapshot{GridPower: domain.Some(-500.0)}})

	rec := doRequest(h, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "health_check: OK", rec.Body.String())
}

func TestListAccessories(t *testing.T) {

	require := require.New(t)

	h := newTestServer(t, testInverter{snapshot: &domain.Snapshot{GridPower: domain.Some(-500.0)}})

	rec := doRequest(h, http.MethodGet, "/accessories", "")
	require.Equal(http.StatusOK, rec.Code)

	var views []accessoryView
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(views, 4)
	for _, v := range views {
		require.Equal("Symo GEN24 10.0", v.Model)
		require.Equal("28136344", v.SerialNumber)
	}
}

func TestCharacteristics(t *testing.T) {

	require := require.New(t)

	h := newTestServer(t, testInverter{snapshot: &domain.Snapshot{
		GridPower:   domain.Some(-500.0),
		RelAutonomy: domain.Some(80.0),
	}})

	require.Eventually(func() bool {
		return doRequest(h, http.MethodGet, "/accessories/import/characteristics/brightness", "").Code == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	rec := doRequest(h, http.MethodGet, "/accessories/import/characteristics/brightness", "")
	var view characteristicView
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(domain.CHARACTERISTIC_BRIGHTNESS, view.Characteristic)
	require.Equal(20.0, view.Value)

	// writes are ignored, the current value is echoed
	rec = doRequest(h, http.MethodPut, "/accessories/import/characteristics/brightness", `{"value": 75}`)
	require.Equal(http.StatusOK, rec.Code)
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(20.0, view.Value)

	var acc accessoryView
	require.Eventually(func() bool {
		rec = doRequest(h, http.MethodGet, "/accessories/export", "")
		return rec.Code == http.StatusOK &&
			json.Unmarshal(rec.Body.Bytes(), &acc) == nil &&
			acc.Available != nil && *acc.Available
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal("export", acc.Id)
	require.NotNil(acc.LightLevel)
	require.Equal(500.0, *acc.LightLevel)
}

func TestNotFound(t *testing.T) {

	h := newTestServer(t, testInverter{snapshot: &domain.Snapshot{GridPower: domain.Some(-500.0)}})

	assert.Equal(t, http.StatusNotFound, doRequest(h, http.MethodGet, "/accessories/battery_percent", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(h, http.MethodGet, "/accessories/pv/characteristics/color", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(h, http.MethodPut, "/accessories/nope/characteristics/on", `{"value": true}`).Code)
}

func TestUnavailable(t *testing.T) {

	require := require.New(t)

	h := newTestServer(t, testInverter{err: domain.ErrUnavailable})

	var rec *httptest.ResponseRecorder
	require.Eventually(func() bool {
		rec = doRequest(h, http.MethodGet, "/accessories/load/characteristics/on", "")
		var body errorView
		return rec.Code == http.StatusServiceUnavailable &&
			json.Unmarshal(rec.Body.Bytes(), &body) == nil &&
			strings.Contains(body.Error, domain.ErrUnavailable.Error())
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMetricsEndpoint(t *testing.T) {

	h := newTestServer(t, testInverter{snapshot: &domain.Snapshot{GridPower: domain.Some(-500.0)}})

	rec := doRequest(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "froniuslights_test_total")
}

package solarapi

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetPowerFlow(t *testing.T) {

	require := require.New(t)

	inv := NewTestInverter()
	defer inv.Close()

	c := NewClient(inv.Host(), WithLogger(zap.Must(zap.NewDevelopment())))

	resp, err := c.GetPowerFlow(context.Background())
	require.NoError(err)
	require.NotNil(resp)

	site := resp.Body.Data.Site
	require.NotNil(site.PGrid)
	assert.Equal(t, -500.0, *site.PGrid, "grid power")
	assert.Equal(t, -300.0, *site.PAkku, "battery power")
	assert.Equal(t, 80.0, *site.RelAutonomy, "autonomy")
	assert.Nil(t, site.RelSelfConsumption, "self consumption is null")
	assert.Len(t, resp.Body.Data.Inverters, 2)
	assert.Equal(t, 55.5, *resp.Body.Data.Inverters["1"].SOC)
}

func TestGetInverterInfoAndCatalog(t *testing.T) {

	require := require.New(t)

	inv := NewTestInverter()
	defer inv.Close()

	c := NewClient(inv.URL)

	info, err := c.GetInverterInfo(context.Background())
	require.NoError(err)
	require.Len(info.Body.Data, 2)
	assert.Equal(t, "28136344", info.Body.Data["1"].UniqueID)
	assert.Equal(t, 99, info.Body.Data["2"].DT)

	catalog, err := c.GetDeviceCatalog(context.Background())
	require.NoError(err)
	assert.Equal(t, "Fronius Primo 5.0-1", catalog.Inverters["99"].ProductName)
}

func TestConcurrentCallsShareOneRequest(t *testing.T) {

	require := require.New(t)

	inv := NewTestInverter()
	defer inv.Close()

	// cache disabled, only in-flight de-duplication is under test
	c := NewClient(inv.Host(), WithCacheTTL(0))

	inv.Hold()

	const callers = 5
	results := make([]*PowerFlowResponse, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetPowerFlow(context.Background())
		}(i)
	}

	// let every caller join the pending request before the inverter answers
	time.Sleep(200 * time.Millisecond)
	inv.Release()
	wg.Wait()

	require.Equal(1, inv.Hits(PowerFlowPath), "exactly one network call")
	for i := 0; i < callers; i++ {
		require.NoError(errs[i])
		require.Same(results[0], results[i], "all callers receive the identical value")
	}
}

func TestFreshRequestAfterSettle(t *testing.T) {

	inv := NewTestInverter()
	defer inv.Close()

	c := NewClient(inv.Host(), WithCacheTTL(0))

	_, err := c.GetPowerFlow(context.Background())
	require.NoError(t, err)
	_, err = c.GetPowerFlow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, inv.Hits(PowerFlowPath), "registry entry removed once settled")
}

func TestCacheServesWithinTTL(t *testing.T) {

	inv := NewTestInverter()
	defer inv.Close()

	reg := prometheus.NewRegistry()
	c := NewClient(inv.Host(), WithCacheTTL(time.Minute), WithRegisterer(reg))

	first, err := c.GetPowerFlow(context.Background())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := c.GetPowerFlow(context.Background())
		require.NoError(t, err)
		assert.Same(t, first, again)
	}

	assert.Equal(t, 1, inv.Hits(PowerFlowPath))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.metrics.cacheHits.WithLabelValues(ENDPOINT_POWER_FLOW)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(ENDPOINT_POWER_FLOW, "ok")))
}

func TestCacheExpires(t *testing.T) {

	inv := NewTestInverter()
	defer inv.Close()

	c := NewClient(inv.Host(), WithCacheTTL(100*time.Millisecond))

	_, err := c.GetPowerFlow(context.Background())
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, err = c.GetPowerFlow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inv.Hits(PowerFlowPath))

	// the hit above does not extend the entry
	time.Sleep(60 * time.Millisecond)
	_, err = c.GetPowerFlow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, inv.Hits(PowerFlowPath))
}

func TestNon2xxIsUnavailable(t *testing.T) {

	inv := NewTestInverter()
	defer inv.Close()
	inv.SetStatus(http.StatusInternalServerError)

	reg := prometheus.NewRegistry()
	c := NewClient(inv.Host(), WithRegisterer(reg))

	resp, err := c.GetPowerFlow(context.Background())
	assert.Nil(t, resp)
	assert.ErrorContains(t, err, "unexpected status code 500")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(ENDPOINT_POWER_FLOW, "error")))

	// failures are not cached
	inv.SetStatus(http.StatusOK)
	resp, err = c.GetPowerFlow(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestTimeoutIsUnavailable(t *testing.T) {

	inv := NewTestInverter()
	defer inv.Close()
	inv.SetDelay(500 * time.Millisecond)

	c := NewClient(inv.Host(), WithTimeout(100*time.Millisecond))

	start := time.Now()
	resp, err := c.GetPowerFlow(context.Background())
	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 450*time.Millisecond, "bounded by the client timeout")
}

func TestUnreachableIsUnavailable(t *testing.T) {

	inv := NewTestInverter()
	host := inv.Host()
	inv.Close()

	c := NewClient(host)

	resp, err := c.GetPowerFlow(context.Background())
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestAPIStatusCodeIsUnavailable(t *testing.T) {

	inv := NewTestInverter()
	defer inv.Close()
	inv.SetBody(InverterInfoPath, `{"Body":{"Data":{}},"Head":{"Status":{"Code":8,"Reason":"not supported"}}}`)

	c := NewClient(inv.Host())

	resp, err := c.GetInverterInfo(context.Background())
	assert.Nil(t, resp)
	assert.ErrorContains(t, err, "api status code 8")
}

func TestCallerContextDoesNotCancelSharedRequest(t *testing.T) {

	inv := NewTestInverter()
	defer inv.Close()

	c := NewClient(inv.Host(), WithCacheTTL(time.Minute))
	inv.Hold()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	resp, err := c.GetPowerFlow(ctx)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	inv.Release()

	// the request started by the first caller completes and fills the cache
	assert.Eventually(t, func() bool {
		_, ok := c.cache.get(c.BaseURL() + PowerFlowPath)
		return ok
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, inv.Hits(PowerFlowPath))
}

func TestBaseURL(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("http://192.168.1.10", baseURL("192.168.1.10"))
	assert.Equal("http://192.168.1.10", baseURL(" 192.168.1.10/ "))
	assert.Equal("https://inverter.local", baseURL("https://inverter.local/"))
}

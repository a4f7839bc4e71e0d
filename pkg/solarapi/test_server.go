package solarapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

const TestPowerFlowJSON = `{
  "Body": {
    "Data": {
      "Inverters": {
        "1": {"Battery_Mode": "normal", "DT": 1, "E_Day": null, "P": 800, "SOC": 55.5},
        "2": {"DT": 99, "P": 0, "SOC": 44.5}
      },
      "Site": {
        "BatteryStandby": false,
        "Mode": "bidirectional",
        "P_Akku": -300,
        "P_Grid": -500,
        "P_Load": -1000,
        "P_PV": 1800,
        "rel_Autonomy": 80,
        "rel_SelfConsumption": null
      },
      "Version": "12"
    }
  },
  "Head": {
    "RequestArguments": {},
    "Status": {"Code": 0, "Reason": "", "UserMessage": ""},
    "Timestamp": "2024-06-01T12:00:00+02:00"
  }
}`

const TestInverterInfoJSON = `{
  "Body": {
    "Data": {
      "1": {"CustomName": "Garage", "DT": 1, "ErrorCode": 0, "PVPower": 10000, "Show": 1, "StatusCode": 7, "UniqueID": "28136344"},
      "2": {"CustomName": "Roof", "DT": 99, "ErrorCode": 0, "PVPower": 5000, "Show": 1, "StatusCode": 7, "UniqueID": "30011122"}
    }
  },
  "Head": {
    "RequestArguments": {},
    "Status": {"Code": 0, "Reason": "", "UserMessage": ""},
    "Timestamp": "2024-06-01T12:00:00+02:00"
  }
}`

const TestDeviceCatalogJSON = `{
  "Inverters": {
    "1": {"ProductName": "Fronius Symo GEN24 10.0"},
    "99": {"ProductName": "Fronius Primo 5.0-1"}
  }
}`

// TestInverter is an httptest server that serves Solar API fixtures and
// counts the requests it receives per path.
type TestInverter struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
	status int
	delay  time.Duration
	gate   chan struct{}
}

func NewTestInverter() *TestInverter {
	ti := &TestInverter{
		bodies: map[string]string{
			PowerFlowPath:            TestPowerFlowJSON,
			InverterInfoPath:         TestInverterInfoJSON,
			DefaultDeviceCatalogPath: TestDeviceCatalogJSON,
		},
		hits:   map[string]int{},
		status: http.StatusOK,
	}
	ti.Server = httptest.NewServer(http.HandlerFunc(ti.serve))
	return ti
}

func (ti *TestInverter) serve(w http.ResponseWriter, r *http.Request) {
	ti.mu.Lock()
	ti.hits[r.URL.Path]++
	body, ok := ti.bodies[r.URL.Path]
	status := ti.status
	delay := ti.delay
	gate := ti.gate
	ti.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Host returns the server address without scheme, as it would be configured.
func (ti *TestInverter) Host() string {
	return strings.TrimPrefix(ti.URL, "http://")
}

func (ti *TestInverter) SetBody(path, body string) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.bodies[path] = body
}

func (ti *TestInverter) SetStatus(status int) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.status = status
}

func (ti *TestInverter) SetDelay(delay time.Duration) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.delay = delay
}

// Hold makes every following request block until Release is called.
func (ti *TestInverter) Hold() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.gate = make(chan struct{})
}

func (ti *TestInverter) Release() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if ti.gate != nil {
		close(ti.gate)
		ti.gate = nil
	}
}

func (ti *TestInverter) Hits(path string) int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.hits[path]
}

package solarapi

import "fmt"

// Head is the common envelope header of the Solar API responses
type Head struct {
	RequestArguments map[string]any `json:"RequestArguments"`
	Status           HeadStatus     `json:"Status"`
	Timestamp        string         `json:"Timestamp"`
}

type HeadStatus struct {
	Code        int    `json:"Code"`
	Reason      string `json:"Reason"`
	UserMessage string `json:"UserMessage"`
}

func (h Head) statusError() error {
	if h.Status.Code != 0 {
		return fmt.Errorf("api status code %d: %s", h.Status.Code, h.Status.Reason)
	}
	return nil
}

// PowerFlowResponse is returned by GetPowerFlowRealtimeData.fcgi
type PowerFlowResponse struct {
	Body struct {
		Data PowerFlowData `json:"Data"`
	} `json:"Body"`
	Head Head `json:"Head"`
}

func (r *PowerFlowResponse) statusError() error {
	return r.Head.statusError()
}

type PowerFlowData struct {
	Site      SitePowerFlow                `json:"Site"`
	Inverters map[string]InverterPowerFlow `json:"Inverters"`
	Version   string                       `json:"Version"`
}

// SitePowerFlow holds the site level aggregates. Every number may be null
// depending on the installed components (meter, battery, PV strings).
type SitePowerFlow struct {
	Mode               string   `json:"Mode"`
	BatteryStandby     *bool    `json:"BatteryStandby"`
	BackupMode         *bool    `json:"BackupMode"`
	PGrid              *float64 `json:"P_Grid"`
	PLoad              *float64 `json:"P_Load"`
	PAkku              *float64 `json:"P_Akku"`
	PPV                *float64 `json:"P_PV"`
	RelAutonomy        *float64 `json:"rel_Autonomy"`
	RelSelfConsumption *float64 `json:"rel_SelfConsumption"`
	EDay               *float64 `json:"E_Day"`
	EYear              *float64 `json:"E_Year"`
	ETotal             *float64 `json:"E_Total"`
}

type InverterPowerFlow struct {
	DT          int      `json:"DT"`
	P           *float64 `json:"P"`
	SOC         *float64 `json:"SOC"`
	BatteryMode string   `json:"Battery_Mode"`
	EDay        *float64 `json:"E_Day"`
	EYear       *float64 `json:"E_Year"`
	ETotal      *float64 `json:"E_Total"`
}

// InverterInfoResponse is returned by GetInverterInfo.cgi
type InverterInfoResponse struct {
	Body struct {
		Data map[string]InverterInfo `json:"Data"`
	} `json:"Body"`
	Head Head `json:"Head"`
}

func (r *InverterInfoResponse) statusError() error {
	return r.Head.statusError()
}

type InverterInfo struct {
	DT         int     `json:"DT"`
	CustomName string  `json:"CustomName"`
	PVPower    float64 `json:"PVPower"`
	Show       int     `json:"Show"`
	StatusCode int     `json:"StatusCode"`
	ErrorCode  int     `json:"ErrorCode"`
	UniqueID   string  `json:"UniqueID"`
}

// DeviceCatalog maps device type ids (DT) to product metadata
type DeviceCatalog struct {
	Inverters map[string]DeviceCatalogEntry `json:"Inverters"`
}

type DeviceCatalogEntry struct {
	ProductName string `json:"ProductName"`
	PowerClass  string `json:"PowerClass,omitempty"`
	MPPTracker  int    `json:"MPPTracker,omitempty"`
}

type apiStatus interface {
	statusError() error
}

package domain

// Snapshot is one reading of the site power flow. Power values are in watts.
type Snapshot struct {
	GridPower             Optional[float64] // positive = import, negative = export
	LoadPower             Optional[float64]
	PVPower               Optional[float64]
	BatteryPower          Optional[float64] // positive = discharge, negative = charge, absent = no battery
	RelAutonomy           Optional[float64]
	RelSelfConsumption    Optional[float64]
	InverterStateOfCharge []Optional[float64]
}

type DeviceIdentity struct {
	Model        Optional[string]
	SerialNumber Optional[string]
}

// Reading is what an accessory derives from one snapshot
type Reading struct {
	On        Value[bool]
	Level     Value[float64]
	Magnitude Value[float64]
}

// UnavailableReading sets every characteristic to the error state
func UnavailableReading(err error) Reading {
	return Reading{
		On:        Err[bool](err),
		Level:     Err[float64](err),
		Magnitude: Err[float64](err),
	}
}

// Available reports whether the on/off characteristic carries a value. A
// failed poll always sets every characteristic to the error state.
func (r Reading) Available() bool {
	return !r.On.IsErr()
}

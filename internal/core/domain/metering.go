package domain

import "fmt"

type MeteringKind int

const (
	METERING_IMPORT MeteringKind = iota
	METERING_EXPORT
	METERING_LOAD
	METERING_PV
	METERING_BATTERY_CHARGING
	METERING_BATTERY_DISCHARGING
	METERING_BATTERY_PERCENT
)

var meteringNames = map[MeteringKind]string{
	METERING_IMPORT:              "Import",
	METERING_EXPORT:              "Export",
	METERING_LOAD:                "Load",
	METERING_PV:                  "PV",
	METERING_BATTERY_CHARGING:    "Battery charging",
	METERING_BATTERY_DISCHARGING: "Battery discharging",
	METERING_BATTERY_PERCENT:     "Battery %",
}

var meteringIds = map[MeteringKind]string{
	METERING_IMPORT:              "import",
	METERING_EXPORT:              "export",
	METERING_LOAD:                "load",
	METERING_PV:                  "pv",
	METERING_BATTERY_CHARGING:    "battery_charging",
	METERING_BATTERY_DISCHARGING: "battery_discharging",
	METERING_BATTERY_PERCENT:     "battery_percent",
}

// BaseMeteringKinds are always exposed
var BaseMeteringKinds = []MeteringKind{
	METERING_IMPORT,
	METERING_EXPORT,
	METERING_LOAD,
	METERING_PV,
}

// BatteryMeteringKinds are exposed only when battery metering is enabled
var BatteryMeteringKinds = []MeteringKind{
	METERING_BATTERY_CHARGING,
	METERING_BATTERY_DISCHARGING,
	METERING_BATTERY_PERCENT,
}

func EnabledMeteringKinds(battery bool) []MeteringKind {
	kinds := append([]MeteringKind{}, BaseMeteringKinds...)
	if battery {
		kinds = append(kinds, BatteryMeteringKinds...)
	}
	return kinds
}

// String is the display name, used as accessory name
func (k MeteringKind) String() string {
	if name, ok := meteringNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MeteringKind(%d)", int(k))
}

// Id is the stable identifier used in topics, URLs and actor names
func (k MeteringKind) Id() string {
	return meteringIds[k]
}

func (k MeteringKind) Valid() bool {
	_, ok := meteringIds[k]
	return ok
}

// HasMagnitude reports whether the kind exposes a light level characteristic
func (k MeteringKind) HasMagnitude() bool {
	return k != METERING_BATTERY_PERCENT
}

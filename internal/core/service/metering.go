package service

import (
	"math"

	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/internal/core/port"
)

const (
	levelMax = 100.0
	levelMin = 0.0
)

type DefaultMeteringLogic struct {
	// PVMaxPower is the installed PV capacity in watts, used to scale the PV level
	PVMaxPower domain.Optional[float64]
}

func (l *DefaultMeteringLogic) Compute(snapshot *domain.Snapshot, kind domain.MeteringKind) domain.Reading {
	if snapshot == nil {
		return domain.UnavailableReading(domain.ErrUnavailable)
	}

	var on bool
	var level, magnitude float64

	switch kind {
	case domain.METERING_IMPORT:
		// autonomy is null without a meter, treated as fully autonomous
		autonomy := snapshot.RelAutonomy.Or(100)
		grid := snapshot.GridPower.Or(0)
		on = autonomy < 100
		level = 100 - autonomy
		magnitude = math.Max(grid, 0)
	case domain.METERING_EXPORT:
		grid := snapshot.GridPower.Or(0)
		magnitude = math.Max(-grid, 0)
		selfConsumption, ok := snapshot.RelSelfConsumption.Get()
		if ok {
			on = selfConsumption < 100
		} else {
			// without self-consumption figures, any feed-in counts as exporting
			selfConsumption = 100
			on = magnitude > 0
		}
		level = 100 - selfConsumption
	case domain.METERING_LOAD:
		load := math.Abs(snapshot.LoadPower.Or(0))
		on = load > 0
		level = 100
		magnitude = load
	case domain.METERING_PV:
		pv, present := snapshot.PVPower.Get()
		on = present
		level = 100
		if capacity, ok := l.PVMaxPower.Get(); ok && capacity > 0 {
			level = math.Min(100, 100*pv/capacity)
		}
		magnitude = pv
	case domain.METERING_BATTERY_CHARGING:
		battery := snapshot.BatteryPower.Or(0)
		on = battery < 0
		level = onLevel(on)
		magnitude = math.Abs(battery)
	case domain.METERING_BATTERY_DISCHARGING:
		battery := snapshot.BatteryPower.Or(0)
		on = battery > 0
		level = onLevel(on)
		magnitude = math.Abs(battery)
	case domain.METERING_BATTERY_PERCENT:
		soc := meanStateOfCharge(snapshot.InverterStateOfCharge)
		return domain.Reading{
			On:        domain.Ok(soc > 0),
			Level:     domain.Ok(clampLevel(soc)),
			Magnitude: domain.Err[float64](domain.ErrNotApplicable),
		}
	default:
		return domain.UnavailableReading(domain.ErrNotApplicable)
	}

	return domain.Reading{
		On:        domain.Ok(on),
		Level:     domain.Ok(clampLevel(level)),
		Magnitude: domain.Ok(math.Max(magnitude, 0)),
	}
}

func onLevel(on bool) float64 {
	if on {
		return levelMax
	}
	return levelMin
}

func clampLevel(level float64) float64 {
	if math.IsNaN(level) {
		return levelMin
	}
	return math.Max(levelMin, math.Min(levelMax, level))
}

// meanStateOfCharge averages every inverter, counting a missing SOC as 0
func meanStateOfCharge(socs []domain.Optional[float64]) float64 {
	if len(socs) == 0 {
		return 0
	}
	var sum float64
	for _, soc := range socs {
		sum += soc.Or(0)
	}
	return sum / float64(len(socs))
}

// ensure interface compliance
var _ port.MeteringLogic = (*DefaultMeteringLogic)(nil)

package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/pkg/solarapi"
)

const identitySeparator = " & "

// DeviceIdentity builds the accessory model and serial number from the
// inverter list and the device catalog. Inverters are ordered by their id.
// Missing data leaves the corresponding field absent.
func DeviceIdentity(info *solarapi.InverterInfoResponse, catalog *solarapi.DeviceCatalog) domain.DeviceIdentity {
	if info == nil || catalog == nil || len(info.Body.Data) == 0 {
		return domain.DeviceIdentity{}
	}

	var models, serials []string
	for _, id := range sortedInverterIds(info.Body.Data) {
		inverter := info.Body.Data[id]
		if entry, ok := catalog.Inverters[strconv.Itoa(inverter.DT)]; ok {
			if name := productName(entry.ProductName); name != "" {
				models = append(models, name)
			}
		}
		if inverter.UniqueID != "" {
			serials = append(serials, inverter.UniqueID)
		}
	}

	identity := domain.DeviceIdentity{}
	if len(models) > 0 {
		identity.Model = domain.Some(strings.Join(models, identitySeparator))
	}
	if len(serials) > 0 {
		identity.SerialNumber = domain.Some(strings.Join(serials, identitySeparator))
	}
	return identity
}

// productName drops the vendor, which is already reported as manufacturer
func productName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "Fronius", ""))
}

func sortedInverterIds[T any](m map[string]T) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Snapshot maps the power flow payload to the domain snapshot
func Snapshot(pf *solarapi.PowerFlowResponse) *domain.Snapshot {
	if pf == nil {
		return nil
	}
	site := pf.Body.Data.Site
	snapshot := &domain.Snapshot{
		GridPower:          domain.OptionalFromPtr(site.PGrid),
		LoadPower:          domain.OptionalFromPtr(site.PLoad),
		PVPower:            domain.OptionalFromPtr(site.PPV),
		BatteryPower:       domain.OptionalFromPtr(site.PAkku),
		RelAutonomy:        domain.OptionalFromPtr(site.RelAutonomy),
		RelSelfConsumption: domain.OptionalFromPtr(site.RelSelfConsumption),
	}
	for _, id := range sortedInverterIds(pf.Body.Data.Inverters) {
		snapshot.InverterStateOfCharge = append(snapshot.InverterStateOfCharge,
			domain.OptionalFromPtr(pf.Body.Data.Inverters[id].SOC))
	}
	return snapshot
}

package events

import (
	"testing"

	"github.com/berfenger/froniuslights/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accessories(battery bool) []domain.AccessoryInfo {
	var infos []domain.AccessoryInfo
	for _, kind := range domain.EnabledMeteringKinds(battery) {
		infos = append(infos, domain.NewAccessoryInfo(kind, domain.DeviceIdentity{}))
	}
	return infos
}

func TestDiscoveryRequest(t *testing.T) {

	require := require.New(t)

	identity := domain.DeviceIdentity{
		Model:        domain.Some("Symo GEN24 10.0"),
		SerialNumber: domain.Some("28136344"),
	}

	req := DiscoveryRequest("froniuslights", identity, accessories(true))

	require.Len(req.Lights, 7)
	// bridge connectivity plus one level sensor per kind except Battery %
	require.Len(req.Sensors, 7)

	light := req.Lights[0]
	require.Equal("import", light.Id)
	require.Equal("Import", light.Name)
	require.Equal("Symo GEN24 10.0", light.Device.Model)
	require.Equal("28136344", light.Device.SerialNumber)
	require.Equal(MANUFACTURER_FRONIUS, light.Device.Manufacturer)
	require.NotEmpty(light.Device.ViaDevice)

	for _, s := range req.Sensors[1:] {
		require.NotEqual("battery_percent", s.AccessoryId)
		require.Equal(UNIT_LUX, s.UnitOfMeasurement)
		require.Equal(s.AccessoryId+SENSOR_ID_SUFFIX_LEVEL, s.Id)
	}
}

func TestDiscoveryWithoutBattery(t *testing.T) {

	req := DiscoveryRequest("froniuslights", domain.DeviceIdentity{}, accessories(false))

	assert.Len(t, req.Lights, 4)
	assert.Len(t, req.Sensors, 5)
}

func TestInverterDeviceWithoutIdentity(t *testing.T) {

	assert := assert.New(t)

	a := InverterDevice("froniuslights", domain.DeviceIdentity{})
	b := InverterDevice("froniuslights", domain.DeviceIdentity{})
	c := InverterDevice("other", domain.DeviceIdentity{})

	assert.Equal(a.Id, b.Id, "stable device id")
	assert.NotEqual(a.Id, c.Id)
	assert.Empty(a.SerialNumber)
	assert.Equal("Inverter", a.Model)
}

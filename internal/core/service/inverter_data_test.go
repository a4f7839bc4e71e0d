package service

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/pkg/solarapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceIdentity(t *testing.T) {

	require := require.New(t)

	info, catalog := identityFixtures(require)

	identity := DeviceIdentity(info, catalog)

	model, ok := identity.Model.Get()
	require.True(ok)
	require.Equal("Symo GEN24 10.0 & Primo 5.0-1", model)

	serial, ok := identity.SerialNumber.Get()
	require.True(ok)
	require.Equal("28136344 & 30011122", serial)
}

func TestDeviceIdentityMissingMetadata(t *testing.T) {

	assert := assert.New(t)

	info, catalog := identityFixtures(require.New(t))

	assert.Equal(domain.DeviceIdentity{}, DeviceIdentity(nil, catalog))
	assert.Equal(domain.DeviceIdentity{}, DeviceIdentity(info, nil))

	// unknown device type keeps the serial number only
	identity := DeviceIdentity(info, &solarapi.DeviceCatalog{})
	assert.False(identity.Model.Valid())
	assert.True(identity.SerialNumber.Valid())
}

func TestSnapshotMapping(t *testing.T) {

	require := require.New(t)

	var pf solarapi.PowerFlowResponse
	require.NoError(json.Unmarshal([]byte(solarapi.TestPowerFlowJSON), &pf))

	s := Snapshot(&pf)
	require.NotNil(s)

	assert.Equal(t, -500.0, s.GridPower.Or(0))
	assert.Equal(t, -1000.0, s.LoadPower.Or(0))
	assert.Equal(t, 1800.0, s.PVPower.Or(0))
	assert.Equal(t, -300.0, s.BatteryPower.Or(0))
	assert.Equal(t, 80.0, s.RelAutonomy.Or(0))
	assert.False(t, s.RelSelfConsumption.Valid())
	require.Len(s.InverterStateOfCharge, 2)
	assert.Equal(t, 55.5, s.InverterStateOfCharge[0].Or(0))
	assert.Equal(t, 44.5, s.InverterStateOfCharge[1].Or(0))

	assert.Nil(t, Snapshot(nil))
}

func TestSortedInverterIds(t *testing.T) {

	ids := sortedInverterIds(map[string]int{"10": 0, "2": 0, "1": 0})
	assert.Equal(t, []string{"1", "2", "10"}, ids)
}

func identityFixtures(require *require.Assertions) (*solarapi.InverterInfoResponse, *solarapi.DeviceCatalog) {
	var info solarapi.InverterInfoResponse
	require.NoError(json.Unmarshal([]byte(solarapi.TestInverterInfoJSON), &info))
	var catalog solarapi.DeviceCatalog
	require.NoError(json.Unmarshal([]byte(solarapi.TestDeviceCatalogJSON), &catalog))
	return &info, &catalog
}

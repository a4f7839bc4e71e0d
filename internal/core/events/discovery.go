package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/berfenger/froniuslights/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE    = "bridge"
	SENSOR_ID_SUFFIX_LEVEL    = "_level"
	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_ILLUMINANCE  = "illuminance"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
	UNIT_LUX                  = "lx"
	MANUFACTURER_FRONIUS      = "Fronius"
)

var meteringIcons = map[domain.MeteringKind]string{
	domain.METERING_IMPORT:              "mdi:transmission-tower-import",
	domain.METERING_EXPORT:              "mdi:transmission-tower-export",
	domain.METERING_LOAD:                "mdi:home-lightning-bolt",
	domain.METERING_PV:                  "mdi:solar-power",
	domain.METERING_BATTERY_CHARGING:    "mdi:battery-arrow-up",
	domain.METERING_BATTERY_DISCHARGING: "mdi:battery-arrow-down",
	domain.METERING_BATTERY_PERCENT:     "mdi:battery-high",
}

func BridgeDevice(baseTopic string) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("froniuslights_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "froniuslights",
		Model:        "Fronius Lights",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Fronius Lights %s", md5HashShort(baseTopic)),
	}
}

// InverterDevice groups every accessory. Without a resolved serial number the
// device id falls back to the bridge base topic.
func InverterDevice(baseTopic string, identity domain.DeviceIdentity) domain.Device {
	serial, hasSerial := identity.SerialNumber.Get()
	key := serial
	if !hasSerial {
		key = baseTopic
	}
	model := identity.Model.Or("Inverter")
	return domain.Device{
		Id:           fmt.Sprintf("fro_inverter_%s", md5HashShort(key)),
		Manufacturer: MANUFACTURER_FRONIUS,
		Model:        model,
		SerialNumber: serial,
		Name:         fmt.Sprintf("%s %s", MANUFACTURER_FRONIUS, model),
	}
}

func BridgeSensors(bridgeDevice domain.Device) []domain.GenericSensor {
	return []domain.GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

// AccessoryLights exposes on/off and brightness of every accessory
func AccessoryLights(device domain.Device, accessories []domain.AccessoryInfo) []domain.GenericLight {
	var lights []domain.GenericLight
	for _, a := range accessories {
		lights = append(lights, domain.GenericLight{
			Device:   device,
			Id:       a.Id,
			Name:     a.Name,
			UniqueId: uniqueId(device.Id, a.Id),
			Icon:     meteringIcons[a.Kind],
		})
	}
	return lights
}

// AccessorySensors exposes the light level of every accessory that has a magnitude
func AccessorySensors(device domain.Device, accessories []domain.AccessoryInfo) []domain.GenericSensor {
	var sensors []domain.GenericSensor
	for _, a := range accessories {
		if !a.Kind.HasMagnitude() {
			continue
		}
		id := a.Id + SENSOR_ID_SUFFIX_LEVEL
		sensors = append(sensors, domain.GenericSensor{
			Device:            device,
			Id:                id,
			AccessoryId:       a.Id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              fmt.Sprintf("%s light level", a.Name),
			UniqueId:          uniqueId(device.Id, id),
			UnitOfMeasurement: UNIT_LUX,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_ILLUMINANCE,
		})
	}
	return sensors
}

// DiscoveryRequest builds the full component set registered with Home Assistant
func DiscoveryRequest(baseTopic string, identity domain.DeviceIdentity, accessories []domain.AccessoryInfo) domain.PublishDiscoveryRequest {
	bridgeDevice := BridgeDevice(baseTopic)
	inverterDevice := InverterDevice(baseTopic, identity)
	inverterDevice.ViaDevice = bridgeDevice.Id

	sensors := BridgeSensors(bridgeDevice)
	sensors = append(sensors, AccessorySensors(inverterDevice, accessories)...)

	return domain.PublishDiscoveryRequest{
		Lights:  AccessoryLights(inverterDevice, accessories),
		Sensors: sensors,
	}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

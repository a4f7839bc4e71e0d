package mqtt

import (
	"fmt"

	"github.com/berfenger/froniuslights/internal/core/domain"
)

const (
	AVAILABILITY_MODE_ALL = "all"
	BRIGHTNESS_SCALE      = 100
)

type HADiscoveryConfig struct {
	Device                 HADiscoveryDevice         `json:"device"`
	StateTopic             string                    `json:"state_topic"`
	CommandTopic           string                    `json:"command_topic,omitempty"`
	BrightnessStateTopic   string                    `json:"brightness_state_topic,omitempty"`
	BrightnessCommandTopic string                    `json:"brightness_command_topic,omitempty"`
	BrightnessScale        int                       `json:"brightness_scale,omitempty"`
	StateClass             string                    `json:"state_class,omitempty"`
	DeviceClass            string                    `json:"device_class,omitempty"`
	UnitOfMeasurement      string                    `json:"unit_of_measurement,omitempty"`
	Availability           []HADiscoveryAvailability `json:"availability,omitempty"`
	AvailabilityMode       string                    `json:"availability_mode,omitempty"`
	EntityCategory         string                    `json:"entity_category,omitempty"`
	Name                   string                    `json:"name"`
	UniqueId               string                    `json:"unique_id"`
	Platform               string                    `json:"platform"`
	PayloadOn              string                    `json:"payload_on,omitempty"`
	PayloadOff             string                    `json:"payload_off,omitempty"`
	Icon                   string                    `json:"icon,omitempty"`
}

type HADiscoveryAvailability struct {
	Topic string `json:"topic"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func HADiscoverySensorTopic(client *MQTTClient, sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", client.DiscoveryTopic(), sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func HADiscoveryLightTopic(client *MQTTClient, light domain.GenericLight) string {
	return fmt.Sprintf("%s/light/%s/%s/config", client.DiscoveryTopic(), light.Device.Id, light.Id)
}

// GenericSensorToHADiscoveryMessage builds the config of a sensor. Sensors
// that belong to an accessory share its availability topic.
func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device:            device(sensor.Device),
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		EntityCategory:    sensor.EntityCategory,
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Icon:              sensor.Icon,
		Platform:          "mqtt",
	}
	if sensor.AccessoryId == "" {
		// bridge connectivity
		disConfig.StateTopic = client.BridgeStateTopic()
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
		return disConfig
	}
	disConfig.StateTopic = client.SensorStateTopic(sensor.AccessoryId)
	disConfig.Availability = availability(client, sensor.AccessoryId)
	disConfig.AvailabilityMode = AVAILABILITY_MODE_ALL
	return disConfig
}

func GenericLightToHADiscoveryMessage(client *MQTTClient, light domain.GenericLight) HADiscoveryConfig {
	return HADiscoveryConfig{
		Device:                 device(light.Device),
		StateTopic:             client.LightStateTopic(light.Id),
		CommandTopic:           client.LightCommandTopic(light.Id),
		BrightnessStateTopic:   client.LightBrightnessStateTopic(light.Id),
		BrightnessCommandTopic: client.LightBrightnessCommandTopic(light.Id),
		BrightnessScale:        BRIGHTNESS_SCALE,
		Availability:           availability(client, light.Id),
		AvailabilityMode:       AVAILABILITY_MODE_ALL,
		Name:                   light.Name,
		UniqueId:               light.UniqueId,
		Icon:                   light.Icon,
		Platform:               "mqtt",
		PayloadOn:              MQTT_PAYLOAD_ON,
		PayloadOff:             MQTT_PAYLOAD_OFF,
	}
}

func availability(client *MQTTClient, accessoryId string) []HADiscoveryAvailability {
	return []HADiscoveryAvailability{
		{Topic: client.BridgeStateTopic()},
		{Topic: client.LightAvailabilityTopic(accessoryId)},
	}
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		SerialNumber: d.SerialNumber,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}

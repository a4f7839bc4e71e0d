package mqtt

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/berfenger/froniuslights/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "ON"
	MQTT_PAYLOAD_OFF     = "OFF"

	COMMAND_SET        = "set"
	COMMAND_BRIGHTNESS = "brightness"
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("froniuslights_%d", rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:                  mqtt.NewClient(opts),
		cfg:                     cfg.MQTT,
		setCommandRegexp:        setCommandExtractor(cfg.MQTT.BaseTopic),
		brightnessCommandRegexp: brightnessCommandExtractor(cfg.MQTT.BaseTopic),
	}
}

type MQTTClient struct {
	client                  mqtt.Client
	cfg                     config.MQTTConfig
	setCommandRegexp        *regexp.Regexp
	brightnessCommandRegexp *regexp.Regexp
}

// ParsedMQTTCommand is a light command addressed to one accessory
type ParsedMQTTCommand struct {
	AccessoryId string
	Command     string
	Payload     string
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) DiscoveryTopic() string {
	return c.cfg.HADiscoveryTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) LightStateTopic(accessoryId string) string {
	return fmt.Sprintf("%s/light/%s/state", c.baseTopic(), accessoryId)
}

func (c *MQTTClient) LightBrightnessStateTopic(accessoryId string) string {
	return fmt.Sprintf("%s/light/%s/brightness", c.baseTopic(), accessoryId)
}

func (c *MQTTClient) LightCommandTopic(accessoryId string) string {
	return fmt.Sprintf("%s/light/%s/%s", c.baseTopic(), accessoryId, COMMAND_SET)
}

func (c *MQTTClient) LightBrightnessCommandTopic(accessoryId string) string {
	return fmt.Sprintf("%s/light/%s/%s/set", c.baseTopic(), accessoryId, COMMAND_BRIGHTNESS)
}

func (c *MQTTClient) LightAvailabilityTopic(accessoryId string) string {
	return fmt.Sprintf("%s/light/%s/availability", c.baseTopic(), accessoryId)
}

func (c *MQTTClient) SensorStateTopic(accessoryId string) string {
	return fmt.Sprintf("%s/sensor/%s/state", c.baseTopic(), accessoryId)
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return parseCommand(c.setCommandRegexp, c.brightnessCommandRegexp, msg.Topic(), string(msg.Payload()))
}

func parseCommand(setRegexp, brightnessRegexp *regexp.Regexp, topic, payload string) (*ParsedMQTTCommand, error) {
	if matches := brightnessRegexp.FindStringSubmatch(topic); len(matches) == 2 {
		return &ParsedMQTTCommand{
			AccessoryId: matches[1],
			Command:     COMMAND_BRIGHTNESS,
			Payload:     payload,
		}, nil
	}
	if matches := setRegexp.FindStringSubmatch(topic); len(matches) == 2 {
		return &ParsedMQTTCommand{
			AccessoryId: matches[1],
			Command:     COMMAND_SET,
			Payload:     payload,
		}, nil
	}
	return nil, errors.New("invalid command")
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.commandTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopic() string {
	return fmt.Sprintf("%s/light/#", c.baseTopic())
}

func setCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/light/([a-zA-Z0-9_]+)/%s$", regexp.QuoteMeta(baseTopic), COMMAND_SET))
}

func brightnessCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/light/([a-zA-Z0-9_]+)/%s/set$", regexp.QuoteMeta(baseTopic), COMMAND_BRIGHTNESS))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

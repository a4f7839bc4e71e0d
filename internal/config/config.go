package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel     zapcore.Level
	Inverter     InverterConfig `mapstructure:"inverter"`
	PollInterval uint           `mapstructure:"poll_interval"`
	PVMaxPower   float64        `mapstructure:"pv_max_power"`
	Battery      bool           `mapstructure:"battery"`
	MQTT         MQTTConfig     `mapstructure:"mqtt"`
	NATS         NATSConfig     `mapstructure:"nats"`
	Port         uint           `mapstructure:"port"`
	HttpLog      bool           `mapstructure:"http_log"`
}

type InverterConfig struct {
	Host              string
	TimeoutMillis     uint32 `mapstructure:"timeout_millis"`
	CacheTTLMillis    uint32 `mapstructure:"cache_ttl_millis"`
	DeviceCatalogPath string `mapstructure:"device_catalog_path"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

func (c InverterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c InverterConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMillis) * time.Millisecond
}

func (c Config) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// MQTT is optional, an empty host disables it
func (c MQTTConfig) Enabled() bool {
	return c.Host != ""
}

func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}

// Validate checks bounds and normalizes topics in place
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Inverter.Host) == "" {
		return errors.New("config param inverter.host is required")
	}
	if cfg.Inverter.TimeoutMillis == 0 {
		return errors.New("config param inverter.timeout_millis should be > 0")
	}
	if cfg.PollInterval < 1 {
		return errors.New("config param poll_interval should be >= 1")
	}
	if cfg.PVMaxPower < 0 {
		return errors.New("config param pv_max_power should be >= 0")
	}

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return fmt.Errorf("invalid base topic: %w", err)
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return fmt.Errorf("invalid homeassistant discovery topic: %w", err)
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	if cfg.NATS.Enabled() {
		prefix, err := CheckMQTTTopic(cfg.NATS.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("invalid nats subject prefix: %w", err)
		}
		cfg.NATS.SubjectPrefix = prefix
	}

	return nil
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

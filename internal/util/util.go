package util

import (
	"github.com/berfenger/froniuslights/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Inverter: config.InverterConfig{
			Host:           "-.-.-.-",
			TimeoutMillis:  2000,
			CacheTTLMillis: 1000,
		},
		PollInterval: 10,
		Battery:      true,
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "froniuslights",
			HADiscoveryTopic: "homeassistant",
		},
		NATS: config.NATSConfig{
			SubjectPrefix: "froniuslights",
		},
		Port: 8080,
	}
}

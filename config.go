package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gaitsense-pipeline/gaitcore"
	"gaitsense-pipeline/ingest"
)

// AppConfig is the top-level structure for config.yaml. Every field has
// a working default so the service runs with no file at all.
type AppConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	MQTT struct {
		Broker         string `yaml:"broker"`
		Port           int    `yaml:"port"`
		Username       string `yaml:"username"`
		Password       string `yaml:"password"`
		Topic          string `yaml:"topic"`
		UseTLS         bool   `yaml:"use_tls"`
		InsecureTLS    bool   `yaml:"insecure_tls"`
		Workers        int    `yaml:"workers"`
		QueueSize      int    `yaml:"queue_size"`
		IdleTimeoutSec int    `yaml:"idle_timeout_sec"`
	} `yaml:"mqtt"`

	Pipeline struct {
		SamplingRate float64 `yaml:"sampling_rate"`
		GyroUnit     string  `yaml:"gyro_unit"`     // auto | rad | deg
		DominantSide string  `yaml:"dominant_side"` // left | right
	} `yaml:"pipeline"`

	Storage struct {
		MaxSessions  int    `yaml:"max_sessions"`
		EnableCSV    bool   `yaml:"enable_csv"`
		StepsCSV     string `yaml:"steps_csv"`
		SummariesCSV string `yaml:"summaries_csv"`
	} `yaml:"storage"`

	Telemetry struct {
		BufferLen int `yaml:"buffer_len"`
	} `yaml:"telemetry"`
}

func defaultAppConfig() AppConfig {
	var cfg AppConfig
	cfg.Server.Port = 8080

	mc := ingest.DefaultConfig()
	cfg.MQTT.Broker = mc.MQTTBroker
	cfg.MQTT.Port = mc.MQTTPort
	cfg.MQTT.Topic = mc.MQTTTopic
	cfg.MQTT.Workers = mc.DecoderWorkers
	cfg.MQTT.QueueSize = mc.QueueSize
	cfg.MQTT.IdleTimeoutSec = int(mc.SessionIdleTimeout / time.Second)

	pc := gaitcore.DefaultConfig()
	cfg.Pipeline.SamplingRate = pc.SamplingRate
	cfg.Pipeline.GyroUnit = "auto"
	cfg.Pipeline.DominantSide = string(pc.DominantSide)

	cfg.Storage.MaxSessions = 256
	cfg.Storage.EnableCSV = true
	cfg.Storage.StepsCSV = "data/step_metrics.csv"
	cfg.Storage.SummariesCSV = "data/session_summary.csv"

	cfg.Telemetry.BufferLen = 4096
	return cfg
}

// LoadAppConfig reads config.yaml when present; a missing file means
// defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := defaultAppConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c AppConfig) ingestConfig() ingest.Config {
	mc := ingest.DefaultConfig()
	mc.MQTTBroker = c.MQTT.Broker
	mc.MQTTPort = c.MQTT.Port
	mc.MQTTUsername = c.MQTT.Username
	mc.MQTTPassword = c.MQTT.Password
	mc.MQTTTopic = c.MQTT.Topic
	mc.UseTLS = c.MQTT.UseTLS
	mc.InsecureSkipTLS = c.MQTT.InsecureTLS
	if c.MQTT.Workers > 0 {
		mc.DecoderWorkers = c.MQTT.Workers
	}
	if c.MQTT.QueueSize > 0 {
		mc.QueueSize = c.MQTT.QueueSize
	}
	if c.MQTT.IdleTimeoutSec > 0 {
		mc.SessionIdleTimeout = time.Duration(c.MQTT.IdleTimeoutSec) * time.Second
	}
	return mc
}

func (c AppConfig) pipelineConfig() gaitcore.Config {
	pc := gaitcore.DefaultConfig()
	if c.Pipeline.SamplingRate > 0 {
		pc.SamplingRate = c.Pipeline.SamplingRate
	}
	if c.Pipeline.DominantSide == string(gaitcore.SideLeft) {
		pc.DominantSide = gaitcore.SideLeft
	}
	return pc
}

func (c AppConfig) gyroUnit() gaitcore.GyroUnit {
	switch c.Pipeline.GyroUnit {
	case "rad":
		return gaitcore.UnitRadians
	case "deg":
		return gaitcore.UnitDegrees
	default:
		return gaitcore.UnitAuto
	}
}

// Package config loads the daemon's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultPath     = "/etc/blueaird/config.yaml"
	DefaultHTTPAddr = "0.0.0.0:8080"

	DefaultPollIntervalSeconds   = 60
	DefaultValidityWindowSeconds = 3600
	DefaultTopicPrefix           = "blueair"
)

type Config struct {
	Core    Core    `koanf:"core"`
	Account Account `koanf:"account"`
	MQTT    *MQTT   `koanf:"mqtt"`
}

type Core struct {
	HTTPAddr            string `koanf:"http_addr"`
	PollIntervalSeconds int    `koanf:"poll_interval_seconds"`
}

type Account struct {
	Username              string `koanf:"username"`
	Password              string `koanf:"password"`
	Region                string `koanf:"region"`
	ValidityWindowSeconds int    `koanf:"validity_window_seconds"`
}

// MQTT is optional. Presence enables the bridge.
type MQTT struct {
	Broker      string `koanf:"broker"`
	ClientID    string `koanf:"client_id"`
	Username    string `koanf:"username"`
	Password    string `koanf:"password"`
	TopicPrefix string `koanf:"topic_prefix"`
}

// Load reads the YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Core.HTTPAddr == "" {
		cfg.Core.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Core.PollIntervalSeconds == 0 {
		cfg.Core.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if cfg.Account.ValidityWindowSeconds == 0 {
		cfg.Account.ValidityWindowSeconds = DefaultValidityWindowSeconds
	}
	if cfg.MQTT != nil {
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "blueaird"
		}
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = DefaultTopicPrefix
		}
	}
}

// Validate enforces required fields beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.Account.Username == "" {
		return fmt.Errorf("account.username is required")
	}
	if cfg.Account.Password == "" {
		return fmt.Errorf("account.password is required")
	}
	if cfg.Account.Region == "" {
		return fmt.Errorf("account.region is required")
	}
	if cfg.Core.PollIntervalSeconds < 0 {
		return fmt.Errorf("core.poll_interval_seconds must not be negative")
	}
	if cfg.MQTT != nil && cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is set")
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Core.PollIntervalSeconds) * time.Second
}

func (c *Config) ValidityWindow() time.Duration {
	return time.Duration(c.Account.ValidityWindowSeconds) * time.Second
}

package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseFull(t *testing.T) {
	data := []byte(`
core:
  http_addr: "127.0.0.1:9090"
  poll_interval_seconds: 30
account:
  username: "user@example.com"
  password: "hunter2"
  region: "eu"
  validity_window_seconds: 1800
mqtt:
  broker: "tcp://mosquitto:1883"
  client_id: "blueaird-test"
  topic_prefix: "home/blueair"
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Core.HTTPAddr != "127.0.0.1:9090" {
		t.Fatalf("unexpected http_addr: %s", cfg.Core.HTTPAddr)
	}
	if cfg.PollInterval() != 30*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Account.Region != "eu" {
		t.Fatalf("unexpected region: %s", cfg.Account.Region)
	}
	if cfg.ValidityWindow() != 30*time.Minute {
		t.Fatalf("unexpected validity window: %s", cfg.ValidityWindow())
	}
	if cfg.MQTT == nil || cfg.MQTT.Broker != "tcp://mosquitto:1883" {
		t.Fatalf("unexpected mqtt config: %+v", cfg.MQTT)
	}
	if cfg.MQTT.TopicPrefix != "home/blueair" {
		t.Fatalf("unexpected topic prefix: %s", cfg.MQTT.TopicPrefix)
	}
}

func TestParseDefaults(t *testing.T) {
	data := []byte(`
account:
  username: "user@example.com"
  password: "hunter2"
  region: "us"
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Core.HTTPAddr != DefaultHTTPAddr {
		t.Fatalf("unexpected http_addr default: %s", cfg.Core.HTTPAddr)
	}
	if cfg.Core.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Fatalf("unexpected poll default: %d", cfg.Core.PollIntervalSeconds)
	}
	if cfg.Account.ValidityWindowSeconds != DefaultValidityWindowSeconds {
		t.Fatalf("unexpected validity default: %d", cfg.Account.ValidityWindowSeconds)
	}
	if cfg.MQTT != nil {
		t.Fatalf("expected mqtt to stay unset")
	}
}

func TestParseMQTTDefaults(t *testing.T) {
	data := []byte(`
account:
  username: "user@example.com"
  password: "hunter2"
  region: "us"
mqtt:
  broker: "tcp://localhost:1883"
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.MQTT.ClientID != "blueaird" {
		t.Fatalf("unexpected client_id default: %s", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.TopicPrefix != DefaultTopicPrefix {
		t.Fatalf("unexpected topic_prefix default: %s", cfg.MQTT.TopicPrefix)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing username",
			"account:\n  password: x\n  region: eu\n",
			"account.username",
		},
		{
			"missing password",
			"account:\n  username: x\n  region: eu\n",
			"account.password",
		},
		{
			"missing region",
			"account:\n  username: x\n  password: y\n",
			"account.region",
		},
		{
			"mqtt without broker",
			"account:\n  username: x\n  password: y\n  region: eu\nmqtt:\n  client_id: z\n",
			"mqtt.broker",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.want, err)
			}
		})
	}
}

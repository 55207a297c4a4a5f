// Package bridge mirrors the BlueAir device fleet onto an MQTT broker.
// It publishes retained state snapshots on a poll interval and accepts
// commands on a set topic per device service.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jonato1/blueaird/blueair"
)

type Options struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string

	PollInterval time.Duration
}

type Bridge struct {
	client *blueair.Client
	opts   Options
	mqtt   mqtt.Client
}

func New(client *blueair.Client, opts Options) (*Bridge, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	if opts.ClientID == "" {
		opts.ClientID = "blueaird"
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "blueair"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	return &Bridge{client: client, opts: opts}, nil
}

// Run connects to the broker and polls until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.opts.Broker)
	opts.SetClientID(b.opts.ClientID)
	opts.SetUsername(b.opts.Username)
	opts.SetPassword(b.opts.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	commandTopic := b.opts.TopicPrefix + "/+/set/+"
	opts.OnConnect = func(client mqtt.Client) {
		if token := client.Subscribe(commandTopic, 0, b.handleCommand); token.Wait() && token.Error() != nil {
			log.Printf("bridge: subscribe %s: %v", commandTopic, token.Error())
		}
	}

	b.mqtt = mqtt.NewClient(opts)
	if token := b.mqtt.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect broker: %w", token.Error())
	}
	defer b.mqtt.Disconnect(250)

	b.publishStates(ctx)

	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.publishStates(ctx)
		}
	}
}

type statePayload struct {
	UUID    string             `json:"uuid"`
	Name    string             `json:"name"`
	Model   string             `json:"model"`
	Kind    string             `json:"kind"`
	Sensors map[string]float64 `json:"sensors"`
	States  map[string]any     `json:"states"`
}

func (b *Bridge) publishStates(ctx context.Context) {
	devices, err := retry.NewWithData[[]blueair.Device](
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
	).Do(func() ([]blueair.Device, error) {
		return b.client.Devices(ctx)
	})
	if err != nil {
		log.Printf("bridge: list devices: %v", err)
		return
	}

	for _, device := range devices {
		details, err := b.client.DeviceStatus(ctx, device.Name, device.UUID)
		if err != nil {
			log.Printf("bridge: status %s: %v", device.Name, err)
			continue
		}
		for _, detail := range details {
			payload, err := json.Marshal(statePayload{
				UUID:    device.UUID,
				Name:    device.Name,
				Model:   detail.HardwareModel,
				Kind:    string(detail.Kind()),
				Sensors: detail.Sensors,
				States:  detail.States,
			})
			if err != nil {
				log.Printf("bridge: encode state %s: %v", device.Name, err)
				continue
			}
			topic := b.opts.TopicPrefix + "/" + device.UUID + "/state"
			if token := b.mqtt.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
				log.Printf("bridge: publish %s: %v", topic, token.Error())
			}
		}
	}
}

func (b *Bridge) handleCommand(_ mqtt.Client, msg mqtt.Message) {
	uuid, service, err := parseCommandTopic(b.opts.TopicPrefix, msg.Topic())
	if err != nil {
		log.Printf("bridge: %v", err)
		return
	}

	verb, value := inferCommand(string(msg.Payload()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := b.client.SendCommand(ctx, uuid, service, verb, value); err != nil {
		log.Printf("bridge: command %s/%s: %v", uuid, service, err)
	}
}

// parseCommandTopic extracts device UUID and service from a
// {prefix}/{uuid}/set/{service} topic.
func parseCommandTopic(prefix, topic string) (uuid, service string, err error) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return "", "", fmt.Errorf("unexpected topic %q", topic)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "set" || parts[0] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("unexpected topic %q", topic)
	}
	return parts[0], parts[2], nil
}

// inferCommand maps a raw payload to the gateway's write shape:
// booleans become vb writes, everything else a v write. Numbers are
// sent as numbers so fan speeds round-trip cleanly.
func inferCommand(payload string) (blueair.Verb, any) {
	trimmed := strings.TrimSpace(payload)
	switch trimmed {
	case "true":
		return blueair.VerbBoolean, true
	case "false":
		return blueair.VerbBoolean, false
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return blueair.VerbValue, n
	}
	return blueair.VerbValue, trimmed
}

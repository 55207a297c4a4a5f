package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonato1/blueaird/blueair"
	"github.com/jonato1/blueaird/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	client := newClient()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "devices":
		devicesCmd(ctx, client)
	case "status":
		statusCmd(ctx, client, os.Args[2:])
	case "set":
		setCmd(ctx, client, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func newClient() *blueair.Client {
	path := envOrDefault("BLUEAIRD_CONFIG", config.DefaultPath)
	cfg, err := config.Load(path)
	if err != nil {
		fatal("load config", err)
	}

	client, err := blueair.NewClient(blueair.Config{
		Username:       cfg.Account.Username,
		Password:       cfg.Account.Password,
		Region:         cfg.Account.Region,
		ValidityWindow: cfg.ValidityWindow(),
	})
	if err != nil {
		fatal("new client", err)
	}
	return client
}

func devicesCmd(ctx context.Context, client *blueair.Client) {
	devices, err := client.Devices(ctx)
	if err != nil {
		fatal("list devices", err)
	}
	for _, device := range devices {
		fmt.Printf("%s\t%s\t%s\n", device.Name, device.UUID, device.MAC)
	}
}

func statusCmd(ctx context.Context, client *blueair.Client, args []string) {
	if len(args) < 1 {
		fatal("status", fmt.Errorf("missing device name or uuid"))
	}

	device := resolveDevice(ctx, client, args[0])
	details, err := client.DeviceStatus(ctx, device.Name, device.UUID)
	if err != nil {
		fatal("device status", err)
	}

	for _, detail := range details {
		fmt.Printf("name: %s\n", detail.Name)
		fmt.Printf("model: %s (%s)\n", detail.HardwareModel, detail.Kind())
		fmt.Println("sensors:")
		for _, sensor := range sortedKeys(detail.Sensors) {
			fmt.Printf("  %s: %v\n", sensor, detail.Sensors[sensor])
		}
		fmt.Println("states:")
		for _, attribute := range sortedKeys(detail.States) {
			fmt.Printf("  %s: %v\n", attribute, detail.States[attribute])
		}
	}
}

func setCmd(ctx context.Context, client *blueair.Client, args []string) {
	if len(args) < 3 {
		fatal("set", fmt.Errorf("usage: set <device> <service> <value>"))
	}

	device := resolveDevice(ctx, client, args[0])
	service := args[1]
	verb, value := inferValue(args[2])

	if _, err := client.SendCommand(ctx, device.UUID, service, verb, value); err != nil {
		fatal("send command", err)
	}
	fmt.Printf("%s %s = %v\n", device.Name, service, value)
}

func resolveDevice(ctx context.Context, client *blueair.Client, nameOrUUID string) blueair.Device {
	devices, err := client.Devices(ctx)
	if err != nil {
		fatal("list devices", err)
	}
	for _, device := range devices {
		if device.Name == nameOrUUID || device.UUID == nameOrUUID {
			return device
		}
	}
	fatal("resolve device", fmt.Errorf("no device named %q", nameOrUUID))
	return blueair.Device{}
}

func inferValue(raw string) (blueair.Verb, any) {
	switch strings.TrimSpace(raw) {
	case "true", "on":
		return blueair.VerbBoolean, true
	case "false", "off":
		return blueair.VerbBoolean, false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return blueair.VerbValue, n
	}
	return blueair.VerbValue, raw
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func usage() {
	fmt.Println("blueaird-cli <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  devices")
	fmt.Println("  status <device>")
	fmt.Println("  set <device> <service> <value>")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}

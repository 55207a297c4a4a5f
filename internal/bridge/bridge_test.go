package bridge

import (
	"testing"

	"github.com/jonato1/blueaird/blueair"
)

func TestParseCommandTopic(t *testing.T) {
	uuid, service, err := parseCommandTopic("blueair", "blueair/uuid-1/set/fanspeed")
	if err != nil {
		t.Fatalf("parseCommandTopic: %v", err)
	}
	if uuid != "uuid-1" || service != "fanspeed" {
		t.Fatalf("unexpected parse: %s %s", uuid, service)
	}

	bad := []string{
		"blueair/uuid-1/fanspeed",
		"blueair/uuid-1/set",
		"blueair//set/fanspeed",
		"blueair/uuid-1/set/",
		"other/uuid-1/set/fanspeed",
	}
	for _, topic := range bad {
		if _, _, err := parseCommandTopic("blueair", topic); err == nil {
			t.Fatalf("expected error for topic %q", topic)
		}
	}
}

func TestInferCommand(t *testing.T) {
	cases := []struct {
		payload   string
		wantVerb  blueair.Verb
		wantValue any
	}{
		{"true", blueair.VerbBoolean, true},
		{"false", blueair.VerbBoolean, false},
		{"2", blueair.VerbValue, 2.0},
		{"37.5", blueair.VerbValue, 37.5},
		{" 3 ", blueair.VerbValue, 3.0},
		{"auto", blueair.VerbValue, "auto"},
	}
	for _, tc := range cases {
		verb, value := inferCommand(tc.payload)
		if verb != tc.wantVerb || value != tc.wantValue {
			t.Fatalf("inferCommand(%q) = %s %v, want %s %v", tc.payload, verb, value, tc.wantVerb, tc.wantValue)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Fatalf("expected error without broker")
	}

	b, err := New(nil, Options{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.opts.ClientID != "blueaird" {
		t.Fatalf("unexpected client id default: %s", b.opts.ClientID)
	}
	if b.opts.TopicPrefix != "blueair" {
		t.Fatalf("unexpected prefix default: %s", b.opts.TopicPrefix)
	}
	if b.opts.PollInterval <= 0 {
		t.Fatalf("expected poll interval default")
	}
}

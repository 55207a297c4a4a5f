package blueair

import "encoding/json"

// Device is one registered device from the account listing.
type Device struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	MAC    string `json:"mac"`
	UserID int64  `json:"userId"`
}

// DeviceDetail is one record from the device status call. The shape
// varies by hardware generation: Sensors and States are sparse maps and
// callers must not assume any particular key is present.
type DeviceDetail struct {
	ID            string
	Name          string
	HardwareModel string
	Sensors       map[string]float64
	States        map[string]any
}

// Kind classifies the record's hardware generation.
func (d DeviceDetail) Kind() Kind {
	return KindForHardware(d.HardwareModel)
}

// CommandResult carries the gateway's response to a command post. The
// body shape is not contractual, so the raw payload is kept.
type CommandResult struct {
	Service string
	Raw     json.RawMessage
}

// Verb selects the command payload key: boolean verbs serialize the
// value under "vb", value verbs under "v".
type Verb string

const (
	VerbBoolean Verb = "vb"
	VerbValue   Verb = "v"
)

type deviceInfoEntry struct {
	ID            string `json:"id"`
	Configuration struct {
		DI struct {
			Name string `json:"name"`
			HW   string `json:"hw"`
		} `json:"di"`
	} `json:"configuration"`
	SensorData []sensorPoint `json:"sensordata"`
	States     []statePoint  `json:"states"`
}

type sensorPoint struct {
	Name  string   `json:"n"`
	Value *float64 `json:"v"`
}

type statePoint struct {
	Name      string   `json:"n"`
	Value     *float64 `json:"v"`
	BoolValue *bool    `json:"vb"`
}

func (e deviceInfoEntry) toDeviceDetail() DeviceDetail {
	detail := DeviceDetail{
		ID:            e.ID,
		Name:          e.Configuration.DI.Name,
		HardwareModel: e.Configuration.DI.HW,
		Sensors:       make(map[string]float64, len(e.SensorData)),
		States:        make(map[string]any, len(e.States)),
	}
	for _, point := range e.SensorData {
		if point.Name == "" || point.Value == nil {
			continue
		}
		detail.Sensors[point.Name] = *point.Value
	}
	for _, point := range e.States {
		if point.Name == "" {
			continue
		}
		switch {
		case point.BoolValue != nil:
			detail.States[point.Name] = *point.BoolValue
		case point.Value != nil:
			detail.States[point.Name] = *point.Value
		}
	}
	return detail
}

package blueair

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	loginSteps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blueaird_login_step_total",
		Help: "Login step outcomes by step and result",
	}, []string{"step", "result"})

	apiRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blueaird_api_requests_total",
		Help: "Gateway API requests by operation and status code",
	}, []string{"op", "code"})

	retryAfterSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blueaird_rate_limit_retry_after_seconds",
		Help: "Cooldown applied after the gateway pushed back",
	})
)

// MetricsCollectors returns the package-level counters for registry
// registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{loginSteps, apiRequests, retryAfterSeconds}
}

// MetricsCollector exports the account's device fleet as Prometheus
// metrics. Each scrape lists the registered devices and fetches every
// device's current sensor and state snapshot.
type MetricsCollector struct {
	client *Client

	scrapeSuccess prometheus.Gauge
	lastSuccess   prometheus.Gauge
	deviceCount   prometheus.Gauge
	info          *prometheus.GaugeVec
	sensorValue   *prometheus.GaugeVec
	stateValue    *prometheus.GaugeVec
}

func NewMetricsCollector(client *Client) *MetricsCollector {
	return &MetricsCollector{
		client: client,
		scrapeSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blueaird_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blueaird_last_success_timestamp_seconds",
			Help: "Last successful scrape timestamp (epoch seconds)",
		}),
		deviceCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blueaird_registered_devices",
			Help: "Number of devices registered to the account",
		}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blueaird_device_info",
			Help: "Device identity and hardware model",
		}, []string{"uuid", "name", "model", "kind"}),
		sensorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blueaird_sensor_value",
			Help: "Latest sensor reading per device",
		}, []string{"device", "sensor"}),
		stateValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blueaird_state_value",
			Help: "Latest state attribute per device (booleans as 1/0)",
		}, []string{"device", "attribute"}),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.scrapeSuccess.Describe(ch)
	c.lastSuccess.Describe(ch)
	c.deviceCount.Describe(ch)
	c.info.Describe(ch)
	c.sensorValue.Describe(ch)
	c.stateValue.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	devices, err := c.client.Devices(ctx)
	if err != nil {
		c.scrapeSuccess.Set(0)
		c.collectAll(ch)
		return
	}

	c.info.Reset()
	c.sensorValue.Reset()
	c.stateValue.Reset()
	c.deviceCount.Set(float64(len(devices)))

	ok := true
	for _, device := range devices {
		details, err := c.client.DeviceStatus(ctx, device.Name, device.UUID)
		if err != nil {
			ok = false
			continue
		}
		for _, detail := range details {
			c.info.With(prometheus.Labels{
				"uuid":  device.UUID,
				"name":  device.Name,
				"model": detail.HardwareModel,
				"kind":  string(detail.Kind()),
			}).Set(1)
			for sensor, value := range detail.Sensors {
				c.sensorValue.With(prometheus.Labels{"device": device.Name, "sensor": sensor}).Set(value)
			}
			for attribute, value := range detail.States {
				c.stateValue.With(prometheus.Labels{"device": device.Name, "attribute": attribute}).Set(stateGaugeValue(value))
			}
		}
	}

	if ok {
		c.scrapeSuccess.Set(1)
		c.lastSuccess.Set(float64(time.Now().Unix()))
	} else {
		c.scrapeSuccess.Set(0)
	}
	c.collectAll(ch)
}

func (c *MetricsCollector) collectAll(ch chan<- prometheus.Metric) {
	c.scrapeSuccess.Collect(ch)
	c.lastSuccess.Collect(ch)
	c.deviceCount.Collect(ch)
	c.info.Collect(ch)
	c.sensorValue.Collect(ch)
	c.stateValue.Collect(ch)
}

func stateGaugeValue(value any) float64 {
	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case float64:
		return v
	default:
		return 0
	}
}

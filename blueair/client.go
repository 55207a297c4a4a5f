// Package blueair talks to the BlueAir AWS cloud API. A Client owns
// the federated login (Gigya password grant, identity-token exchange,
// gateway access-token exchange), keeps the resulting credentials in
// memory, and transparently re-authenticates when they pass their
// validity window. On top of that it exposes the three device
// operations the gateway offers: listing registered devices, fetching
// a device's sensor and state snapshot, and sending a command to a
// device service.
package blueair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultValidity = time.Hour

	// The gateway rejects unfamiliar clients, so we present the same
	// identity the vendor's mobile app does.
	userAgent = "Blueair/58 CFNetwork/1327.0.4 Darwin/21.2.0"
)

// Config carries everything needed to construct a Client. Username,
// Password and Region are required; the rest defaults sensibly.
type Config struct {
	Username string
	Password string
	Region   string

	// AuthBaseURL and GatewayBaseURL override the endpoints derived
	// from Region. Mostly useful for tests.
	AuthBaseURL    string
	GatewayBaseURL string

	// ValidityWindow bounds how long a login is trusted before the
	// client re-authenticates. Zero means one hour.
	ValidityWindow time.Duration

	// Timeout applies per HTTP request. Zero means ten seconds.
	Timeout time.Duration

	// Clock is only swapped out by tests.
	Clock clock.Clock
}

// Client is safe for concurrent use.
type Client struct {
	profile     RegionProfile
	store       *CredentialStore
	guard       *sessionGuard
	gatewayBase string
	httpClient  *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Username == "" {
		return nil, &ConfigError{Reason: "username is required"}
	}
	if cfg.Password == "" {
		return nil, &ConfigError{Reason: "password is required"}
	}
	profile, err := resolveRegion(cfg.Region)
	if err != nil {
		return nil, err
	}

	authBase := cfg.AuthBaseURL
	if authBase == "" {
		authBase = fmt.Sprintf("https://accounts.%s.gigya.com", profile.AuthRegion)
	}
	gatewayBase := cfg.GatewayBaseURL
	if gatewayBase == "" {
		gatewayBase = fmt.Sprintf("https://%s.execute-api.%s.amazonaws.com/prod/c", profile.GatewayID, profile.GatewayRegion)
	}
	authBase = strings.TrimSuffix(authBase, "/")
	gatewayBase = strings.TrimSuffix(gatewayBase, "/")

	validity := cfg.ValidityWindow
	if validity <= 0 {
		validity = defaultValidity
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	store := NewCredentialStore(cfg.Clock)
	httpClient := wrapHTTP(&http.Client{Timeout: timeout}, store.clk)
	auth := &authSession{
		username:    cfg.Username,
		password:    cfg.Password,
		profile:     profile,
		authBase:    authBase,
		gatewayBase: gatewayBase,
		httpClient:  httpClient,
		store:       store,
		validity:    validity,
	}

	return &Client{
		profile:     profile,
		store:       store,
		guard:       &sessionGuard{store: store, auth: auth},
		gatewayBase: gatewayBase,
		httpClient:  httpClient,
	}, nil
}

// Login authenticates immediately instead of waiting for the first
// device operation to need credentials. Useful for failing fast at
// startup.
func (c *Client) Login(ctx context.Context) error {
	return c.guard.ensureValid(ctx)
}

// Devices returns the devices registered to the account. An account
// with no devices yields an empty slice, not an error.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	payload, err := c.doGateway(ctx, http.MethodGet, "/registered-devices", nil, "list-devices", "")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Devices []Device `json:"devices"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &APIError{Op: "list-devices", Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.Devices == nil {
		resp.Devices = []Device{}
	}
	return resp.Devices, nil
}

type initialQuery struct {
	DeviceConfigQuery []deviceConfigQuery `json:"deviceconfigquery"`
	IncludeStates     bool                `json:"includestates"`
	EventSubscription eventSubscription   `json:"eventsubscription"`
}

type deviceConfigQuery struct {
	ID string       `json:"id"`
	R  configFilter `json:"r"`
}

type configFilter struct {
	R []string `json:"r"`
}

type eventSubscription struct {
	Include []eventInclude `json:"include"`
}

type eventInclude struct {
	Filter eventFilter `json:"filter"`
}

type eventFilter struct {
	O string `json:"o"`
}

// DeviceStatus fetches the current sensor readings and state
// attributes for a device. The gateway addresses the query by device
// name but filters the event subscription by UUID, so both are needed.
func (c *Client) DeviceStatus(ctx context.Context, deviceName, deviceUUID string) ([]DeviceDetail, error) {
	query := initialQuery{
		DeviceConfigQuery: []deviceConfigQuery{
			{ID: deviceUUID, R: configFilter{R: []string{"sensors"}}},
		},
		IncludeStates: true,
		EventSubscription: eventSubscription{
			Include: []eventInclude{
				{Filter: eventFilter{O: "= " + deviceUUID}},
			},
		},
	}

	payload, err := c.doGateway(ctx, http.MethodPost, "/"+deviceName+"/r/initial", query, "device-status", "")
	if err != nil {
		return nil, err
	}

	var resp struct {
		DeviceInfo []deviceInfoEntry `json:"deviceInfo"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &APIError{Op: "device-status", Err: fmt.Errorf("decode response: %w", err)}
	}

	details := make([]DeviceDetail, 0, len(resp.DeviceInfo))
	for _, entry := range resp.DeviceInfo {
		details = append(details, entry.toDeviceDetail())
	}
	return details, nil
}

// SendCommand writes a single attribute on a device service. The verb
// selects the payload shape: VerbBoolean sends value as a bool,
// VerbValue sends it as a number.
func (c *Client) SendCommand(ctx context.Context, deviceUUID, service string, verb Verb, value any) (*CommandResult, error) {
	body := map[string]any{"n": service}
	switch verb {
	case VerbBoolean:
		body["vb"] = value
	case VerbValue:
		body["v"] = value
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown command verb %q", verb)}
	}

	payload, err := c.doGateway(ctx, http.MethodPost, "/"+deviceUUID+"/a/"+service, body, "command", service)
	if err != nil {
		return nil, err
	}
	return &CommandResult{Service: service, Raw: payload}, nil
}

// doGateway runs one authenticated gateway call: refresh credentials
// if needed, attach them, and classify the outcome.
func (c *Client) doGateway(ctx context.Context, method, path string, body any, op, service string) ([]byte, error) {
	if err := c.guard.ensureValid(ctx); err != nil {
		return nil, err
	}
	creds := c.store.Snapshot()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Op: op, Service: service, Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.gatewayBase+path, reader)
	if err != nil {
		return nil, &APIError{Op: op, Service: service, Err: err}
	}
	setCommonHeaders(req)
	req.Header.Set("idtoken", creds.AccessToken)
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: req.URL.Host, Err: err}
	}

	apiRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Op:      op,
			Service: service,
			Status:  resp.StatusCode,
			Body:    strings.TrimSpace(string(payload)),
		}
	}
	return payload, nil
}

func setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

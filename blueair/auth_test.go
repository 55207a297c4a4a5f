package blueair

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

// handleAuthStep serves the three login endpoints on the shared test
// server, counting completed logins. Returns false for paths it does
// not own.
func handleAuthStep(t *testing.T, w http.ResponseWriter, r *http.Request, logins *int32) bool {
	t.Helper()
	switch r.URL.Path {
	case "/accounts.login":
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST to /accounts.login, got %s", r.Method)
		}
		form := parseForm(t, r)
		if form.Get("loginID") != "user@example.com" {
			t.Fatalf("unexpected loginID: %s", form.Get("loginID"))
		}
		if form.Get("password") != "hunter2" {
			t.Fatalf("unexpected password: %s", form.Get("password"))
		}
		if form.Get("targetEnv") != "mobile" {
			t.Fatalf("unexpected targetEnv: %s", form.Get("targetEnv"))
		}
		if form.Get("apikey") == "" {
			t.Fatalf("expected apikey in login form")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"sessionInfo":{"sessionToken":"session-token","sessionSecret":"session-secret"}}`)
		return true
	case "/accounts.getJWT":
		form := parseForm(t, r)
		if form.Get("oauth_token") != "session-token" {
			t.Fatalf("unexpected oauth_token: %s", form.Get("oauth_token"))
		}
		if form.Get("secret") != "session-secret" {
			t.Fatalf("unexpected secret: %s", form.Get("secret"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id_token":"jwt-token"}`)
		return true
	case "/login":
		if r.Header.Get("idtoken") != "jwt-token" {
			t.Fatalf("unexpected idtoken header: %s", r.Header.Get("idtoken"))
		}
		if r.Header.Get("Authorization") != "Bearer jwt-token" {
			t.Fatalf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if logins != nil {
			atomic.AddInt32(logins, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"gateway-token"}`)
		return true
	}
	return false
}

func parseForm(t *testing.T, r *http.Request) url.Values {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read form body: %v", err)
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		t.Fatalf("parse form body: %v", err)
	}
	return form
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Username:       "user@example.com",
		Password:       "hunter2",
		Region:         "eu",
		AuthBaseURL:    baseURL,
		GatewayBaseURL: baseURL,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestLoginFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !handleAuthStep(t, w, r, nil) {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if !client.store.Expired() {
		t.Fatalf("expected fresh client to be expired")
	}

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if client.store.Expired() {
		t.Fatalf("expected credentials to be valid after login")
	}

	creds := client.store.Snapshot()
	if creds.SessionToken != "session-token" || creds.SessionSecret != "session-secret" {
		t.Fatalf("unexpected session credentials: %+v", creds)
	}
	if creds.IdentityToken != "jwt-token" {
		t.Fatalf("unexpected identity token: %s", creds.IdentityToken)
	}
	if creds.AccessToken != "gateway-token" {
		t.Fatalf("unexpected access token: %s", creds.AccessToken)
	}
}

func TestLoginStepFailures(t *testing.T) {
	cases := []struct {
		name     string
		failPath string
		wantStep string
	}{
		{"password grant rejected", "/accounts.login", StepLogin},
		{"token exchange rejected", "/accounts.getJWT", StepTokenExchange},
		{"access exchange rejected", "/login", StepAccessExchange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == tc.failPath {
					http.Error(w, "nope", http.StatusForbidden)
					return
				}
				if !handleAuthStep(t, w, r, nil) {
					t.Fatalf("unexpected path: %s", r.URL.Path)
				}
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			err := client.Login(context.Background())
			if err == nil {
				t.Fatalf("expected login to fail at %s", tc.failPath)
			}
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %T: %v", err, err)
			}
			if authErr.Step != tc.wantStep {
				t.Fatalf("expected step %s, got %s", tc.wantStep, authErr.Step)
			}
			if !client.store.Expired() {
				t.Fatalf("expected store untouched after failed login")
			}
		})
	}
}

func TestLoginMissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/accounts.login" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"sessionInfo":{}}`)
			return
		}
		t.Fatalf("unexpected path: %s", r.URL.Path)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Login(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if authErr.Step != StepLogin {
		t.Fatalf("expected step %s, got %s", StepLogin, authErr.Step)
	}
}

func TestLoginTimeoutIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Username:       "user@example.com",
		Password:       "hunter2",
		Region:         "eu",
		AuthBaseURL:    server.URL,
		GatewayBaseURL: server.URL,
		Timeout:        20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Login(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if !client.store.Expired() {
		t.Fatalf("expected store untouched after transport failure")
	}
}

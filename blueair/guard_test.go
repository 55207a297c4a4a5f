package blueair

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func TestConcurrentCallsShareOneLogin(t *testing.T) {
	var logins int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handleAuthStep(t, w, r, &logins) {
			return
		}
		if r.URL.Path == "/registered-devices" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"devices":[]}`)
			return
		}
		t.Fatalf("unexpected path: %s", r.URL.Path)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Devices(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Devices: %v", err)
	}

	if got := atomic.LoadInt32(&logins); got != 1 {
		t.Fatalf("expected exactly one login, got %d", got)
	}
}

func TestGuardSkipsValidCredentials(t *testing.T) {
	var logins int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !handleAuthStep(t, w, r, &logins) {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	for i := 0; i < 3; i++ {
		if err := client.Login(context.Background()); err != nil {
			t.Fatalf("Login: %v", err)
		}
	}
	if got := atomic.LoadInt32(&logins); got != 1 {
		t.Fatalf("expected one login across repeated calls, got %d", got)
	}
}

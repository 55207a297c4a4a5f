package blueair

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Credentials is the complete session state produced by one login
// sequence. Sets are replaced wholesale; there is no partial update.
type Credentials struct {
	SessionToken  string
	SessionSecret string
	IdentityToken string
	AccessToken   string
	ExpiresAt     time.Time
}

// CredentialStore holds the active credential set for a single account.
// Reads and the whole-set swap are synchronized so a request never
// observes a half-written set.
type CredentialStore struct {
	clk clock.Clock

	mu            sync.RWMutex
	creds         Credentials
	authenticated bool
}

func NewCredentialStore(clk clock.Clock) *CredentialStore {
	if clk == nil {
		clk = clock.New()
	}
	return &CredentialStore{clk: clk}
}

// Expired reports whether a fresh login is needed. True until the first
// successful login, and again once the validity window has passed.
func (s *CredentialStore) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.authenticated || !s.clk.Now().Before(s.creds.ExpiresAt)
}

// Replace swaps in a complete credential set.
func (s *CredentialStore) Replace(creds Credentials) {
	s.mu.Lock()
	s.creds = creds
	s.authenticated = true
	s.mu.Unlock()
}

// Snapshot returns the active credential set. Capture one snapshot per
// outgoing request; re-reading fields individually could tear across a
// concurrent Replace.
func (s *CredentialStore) Snapshot() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

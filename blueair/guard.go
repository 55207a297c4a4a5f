package blueair

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// sessionGuard serializes re-authentication. Concurrent callers that
// all find the credentials expired share one login; later callers see
// the refreshed store and skip the flight entirely.
type sessionGuard struct {
	store  *CredentialStore
	auth   *authSession
	flight singleflight.Group
}

func (g *sessionGuard) ensureValid(ctx context.Context) error {
	if !g.store.Expired() {
		return nil
	}
	_, err, _ := g.flight.Do("login", func() (any, error) {
		// A flight that just finished may have refreshed the store
		// between our check and this one.
		if !g.store.Expired() {
			return nil, nil
		}
		return nil, g.auth.login(ctx)
	})
	return err
}

// internal/common/auth/gate.go
package auth

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"stock-backoffice/internal/common/logger"
)

// DefaultSkew is how long before expiry a credential stops being used.
const DefaultSkew = 30 * time.Second

// Gate guards outgoing requests. A request proceeds only with a valid
// credential; otherwise one background re-authentication is started and the
// request is abandoned.
type Gate struct {
	source  TokenSource
	skew    time.Duration
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time

	mu   sync.RWMutex
	cred *Credential

	reauthenticating atomic.Bool
}

func NewGate(source TokenSource, skew time.Duration, log logger.Logger) *Gate {
	if skew <= 0 {
		skew = DefaultSkew
	}
	return &Gate{
		source:  source,
		skew:    skew,
		timeout: 30 * time.Second,
		logger:  logger.ForComponent(log, "auth"),
		now:     time.Now,
	}
}

// Login authenticates synchronously. Commands call it once before their first
// request so that request is not abandoned.
func (g *Gate) Login(ctx context.Context) error {
	cred, err := g.source.Token(ctx)
	if err != nil {
		return err
	}
	g.setCredential(cred)
	return nil
}

// Authorize returns the bearer token to send. When no valid credential is
// held it starts re-authentication (at most one at a time) and returns false.
func (g *Gate) Authorize(ctx context.Context) (string, bool) {
	g.mu.RLock()
	cred := g.cred
	g.mu.RUnlock()

	if cred.Valid(g.now(), g.skew) {
		return cred.AccessToken, true
	}

	g.reauthenticate()
	return "", false
}

// Reauthenticating reports whether a re-authentication is in progress.
func (g *Gate) Reauthenticating() bool {
	return g.reauthenticating.Load()
}

// Invalidate drops the held credential.
func (g *Gate) Invalidate() {
	g.setCredential(nil)
}

// Credential returns a copy of the held credential, if any.
func (g *Gate) Credential() (Credential, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.cred == nil {
		return Credential{}, false
	}
	return *g.cred, true
}

// Subject returns the user of the held credential.
func (g *Gate) Subject() (string, error) {
	cred, ok := g.Credential()
	if !ok {
		return "", fmt.Errorf("not authenticated")
	}
	return SubjectOf(cred.AccessToken)
}

func (g *Gate) setCredential(cred *Credential) {
	g.mu.Lock()
	g.cred = cred
	g.mu.Unlock()
}

func (g *Gate) reauthenticate() {
	if !g.reauthenticating.CompareAndSwap(false, true) {
		return
	}

	g.logger.Info("credential missing or expired, re-authenticating", nil)

	go func() {
		defer g.reauthenticating.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()

		cred, err := g.source.Token(ctx)
		if err != nil {
			g.logger.Error("re-authentication failed", map[string]interface{}{"error": err.Error()})
			return
		}
		g.setCredential(cred)
		g.logger.Info("re-authenticated", map[string]interface{}{"expiresAt": cred.ExpiresAt})
	}()
}

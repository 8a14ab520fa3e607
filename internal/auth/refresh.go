// Package auth serializes OAuth token refreshes. Providers rotate the
// refresh token on every use, so two concurrent refreshes for the same
// tenant would invalidate each other's new tokens; the manager makes
// sure only one refresh per (tenant, service) key is ever in flight in
// this process.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/types"
)

// DefaultMinRefreshInterval is the minimum gap between the starts of two
// successive refresh attempts for the same key
const DefaultMinRefreshInterval = 5 * time.Second

// TokenSet is the result of a completed refresh
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RefreshFn performs the actual refresh against the provider's token
// endpoint. The manager never retries it.
type RefreshFn func(ctx context.Context) (*TokenSet, error)

type flight struct {
	done  chan struct{}
	token *TokenSet
	err   error
}

// RefreshManager deduplicates concurrent refreshes per key and rate
// limits successive attempts. The lock is process-local only; it does
// not protect against refresh races between separate instances sharing
// one token store.
type RefreshManager struct {
	mu          sync.Mutex
	flights     map[string]*flight
	lastStart   map[string]time.Time
	minInterval time.Duration
	logger      *logger.Logger
}

// NewRefreshManager creates a refresh manager. A non-positive
// minInterval falls back to DefaultMinRefreshInterval.
func NewRefreshManager(minInterval time.Duration, logger *logger.Logger) *RefreshManager {
	if minInterval <= 0 {
		minInterval = DefaultMinRefreshInterval
	}
	return &RefreshManager{
		flights:     make(map[string]*flight),
		lastStart:   make(map[string]time.Time),
		minInterval: minInterval,
		logger:      logger,
	}
}

// Refresh runs fn for the (tenantID, service) key, sharing a single
// in-flight invocation between concurrent callers. Callers arriving
// while a refresh is in flight wait for its result instead of starting
// another one; failures propagate to every waiter. A call arriving after
// completion but within the minimum interval fails fast with a rate
// limit error carrying the remaining wait.
func (m *RefreshManager) Refresh(ctx context.Context, tenantID string, service types.IntegrationService, fn RefreshFn) (*TokenSet, error) {
	key := fmt.Sprintf("%s:%s", tenantID, service)

	m.mu.Lock()
	if f, ok := m.flights[key]; ok {
		m.mu.Unlock()
		m.logger.Debugw("joining in-flight token refresh", "key", key)
		select {
		case <-f.done:
			return f.token, f.err
		case <-ctx.Done():
			return nil, ierr.WithError(ctx.Err()).
				WithHint("Token refresh was cancelled").
				Mark(ierr.ErrSystem)
		}
	}

	if last, ok := m.lastStart[key]; ok {
		if wait := m.minInterval - time.Since(last); wait > 0 {
			m.mu.Unlock()
			return nil, ierr.NewError("token refresh rate limited").
				WithHintf("A refresh for this service just ran, retry in %s", wait.Round(time.Millisecond)).
				WithReportableDetails(map[string]any{
					"service":        service,
					"retry_after_ms": wait.Milliseconds(),
				}).
				Mark(ierr.ErrTooManyRequests)
		}
	}

	f := &flight{done: make(chan struct{})}
	m.flights[key] = f
	m.lastStart[key] = time.Now()
	m.mu.Unlock()

	m.logger.Debugw("starting token refresh", "key", key)
	f.token, f.err = fn(ctx)

	m.mu.Lock()
	delete(m.flights, key)
	m.mu.Unlock()
	close(f.done)

	if f.err != nil {
		m.logger.Warnw("token refresh failed", "key", key, "error", f.err)
	}
	return f.token, f.err
}

// InFlight reports whether a refresh is currently running for the key
func (m *RefreshManager) InFlight(tenantID string, service types.IntegrationService) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.flights[fmt.Sprintf("%s:%s", tenantID, service)]
	return ok
}

// Package device implements the device-resident half of the protocol: the
// replay guard, the append-only local ledger, the transaction state machine
// and the sync submission loop. Per-device processing is UI-driven and
// sequential; the types here still lock internally so a background sync loop
// can run beside the engine.
package device

import (
	"sync"
	"time"

	"offline-pay/internal/core/ports"
	"offline-pay/pkg/apperror"
)

// DefaultFreshnessWindow is the design-default W: payloads older or newer
// than this relative to the device clock are rejected as stale.
const DefaultFreshnessWindow = 2 * time.Minute

// ReplayGuard tracks seen nonces within the device's recent-transaction
// window and enforces the freshness window W. It is the fast local check; the
// authoritative nonce constraint lives server-side.
type ReplayGuard struct {
	mu     sync.Mutex
	window time.Duration
	clock  ports.Clock
	seen   map[string]time.Time
}

// NewReplayGuard creates a guard with freshness window w (0 means the
// default 2 minutes).
func NewReplayGuard(w time.Duration, clock ports.Clock) *ReplayGuard {
	if w <= 0 {
		w = DefaultFreshnessWindow
	}
	return &ReplayGuard{
		window: w,
		clock:  clock,
		seen:   make(map[string]time.Time),
	}
}

// Check validates freshness and nonce uniqueness, then records the nonce.
// Order matters: staleness is checked first so a replayed-but-stale payload
// reports the staleness, and a stale payload does not pollute the nonce set.
func (g *ReplayGuard) Check(nonce string, timestampMs int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	ts := time.UnixMilli(timestampMs)
	if d := now.Sub(ts); d > g.window || d < -g.window {
		return apperror.ErrStaleTransaction()
	}

	g.prune(now)
	if _, dup := g.seen[nonce]; dup {
		return apperror.ErrReplay()
	}
	g.seen[nonce] = now
	return nil
}

// prune drops nonces older than twice the window; anything that old would be
// rejected as stale before the nonce set is consulted.
func (g *ReplayGuard) prune(now time.Time) {
	cutoff := now.Add(-2 * g.window)
	for n, at := range g.seen {
		if at.Before(cutoff) {
			delete(g.seen, n)
		}
	}
}

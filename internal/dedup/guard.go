package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/orders"
)

// Decision is the guard's verdict for a (transaction, kind) pair.
type Decision int

const (
	// Acquired: the caller owns the conversion and must report it.
	Acquired Decision = iota
	// AlreadyProcessing: a concurrent or recent caller holds the reservation.
	AlreadyProcessing
	// AlreadySentPersisted: the order's persisted flag says the conversion
	// went out in a previous request cycle.
	AlreadySentPersisted
)

// Result carries the decision and, for AlreadyProcessing, how long ago the
// reservation was taken.
type Result struct {
	Decision Decision
	Elapsed  time.Duration
}

// Guard enforces at-most-once conversion reporting with two layers: the
// persisted sent-flag on the order, then a short-lived in-memory debounce
// keyed by transaction id + kind. The debounce entry is written under the
// lock before Acquired is returned, so concurrent callers for the same key
// observe each other's reservation instead of racing to the sink.
type Guard struct {
	mu      sync.Mutex
	entries map[string]time.Time

	window   time.Duration // how long a paid reservation blocks duplicates
	entryTTL time.Duration // sweep horizon for stale entries
	nowFunc  func() time.Time
	logger   *zap.Logger
}

// NewGuard creates a guard with the given debounce window and sweep TTL.
func NewGuard(window, entryTTL time.Duration, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		entries:  map[string]time.Time{},
		window:   window,
		entryTTL: entryTTL,
		nowFunc:  time.Now,
		logger:   logger,
	}
}

func key(transactionID string, kind orders.ConversionKind) string {
	return fmt.Sprintf("%s-%s", transactionID, kind)
}

// TryAcquire decides whether the caller may report the conversion. order may
// be nil when no local record exists; only the debounce layer applies then.
func (g *Guard) TryAcquire(order *orders.Order, transactionID string, kind orders.ConversionKind) Result {
	if order != nil && order.SentFlag(kind) {
		return Result{Decision: AlreadySentPersisted}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowFunc()
	k := key(transactionID, kind)
	if last, ok := g.entries[k]; ok {
		elapsed := now.Sub(last)
		// A pending conversion is one-shot: any live entry blocks it. Paid
		// entries only block within the debounce window; after that the
		// persisted flag is the authority.
		if kind == orders.ConversionPending || elapsed < g.window {
			return Result{Decision: AlreadyProcessing, Elapsed: elapsed}
		}
	}

	// Reservation must land before any downstream call is issued.
	g.entries[k] = now
	return Result{Decision: Acquired}
}

// Sweep prunes entries older than the TTL on a fixed interval until ctx ends.
func (g *Guard) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.prune()
		}
	}
}

func (g *Guard) prune() {
	g.mu.Lock()
	defer g.mu.Unlock()
	cutoff := g.nowFunc().Add(-g.entryTTL)
	removed := 0
	for k, ts := range g.entries {
		if ts.Before(cutoff) {
			delete(g.entries, k)
			removed++
		}
	}
	if removed > 0 {
		g.logger.Debug("debounce cache pruned", zap.Int("removed", removed), zap.Int("remaining", len(g.entries)))
	}
}

// Len reports the number of live debounce entries.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

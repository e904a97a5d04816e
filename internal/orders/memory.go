package orders

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-node order store: a dual-indexed in-process map.
// Records older than ttl are evicted during Save, so the map is a cache with
// LRU-by-age semantics, not durable storage.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]*Order
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewMemoryStore creates a store evicting records older than ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items:   map[string]*Order{},
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Paid is terminal: an incoming pending snapshot never overwrites it.
	if existing, ok := s.items[o.OrderID]; ok {
		if existing.Status == StatusPaid && o.Status == StatusPending {
			o.Status = StatusPaid
		}
	}

	s.items[o.OrderID] = o
	if o.TransactionID != "" {
		s.items[o.TransactionID] = o
	}

	cutoff := s.nowFunc().Add(-s.ttl)
	for key, ord := range s.items {
		if ord.CreatedAt.Before(cutoff) {
			delete(s.items, key)
		}
	}
	return nil
}

// Get returns a snapshot of the record. Callers never see the stored struct
// itself; concurrent MarkPaid/MarkConversionSent mutate it under the lock.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, id, expected, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok || o.Status != expected {
		return ErrStatusMismatch
	}
	o.Status = next
	return nil
}

func (s *MemoryStore) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return ErrStatusMismatch
	}
	o.Status = StatusPaid
	if o.PaidAt.IsZero() {
		o.PaidAt = paidAt
	}
	return nil
}

func (s *MemoryStore) MarkConversionSent(ctx context.Context, id string, kind ConversionKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return ErrStatusMismatch
	}
	if o.SentFlag(kind) {
		return ErrAlreadySent
	}
	if kind == ConversionPaid {
		o.SentPaid = true
	} else {
		o.SentPending = true
	}
	return nil
}

func (s *MemoryStore) All(ctx context.Context) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	out := make([]*Order, 0, len(s.items))
	for _, o := range s.items {
		if seen[o.OrderID] {
			continue
		}
		seen[o.OrderID] = true
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

// Clear drops every record. Used by tests and the debug surface.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = map[string]*Order{}
}

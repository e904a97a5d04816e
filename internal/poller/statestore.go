package poller

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"
)

// PendingPayment is the locally persisted polling state: enough to resume
// polling the same transaction after a restart instead of generating a
// duplicate payment intent.
type PendingPayment struct {
	TransactionID string    `json:"transactionId"`
	PixPayload    string    `json:"pixPayload,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StateStore persists the pending payment across restarts.
type StateStore interface {
	Save(p *PendingPayment) error
	Load() (*PendingPayment, error) // (nil, nil) when nothing is stored
	Clear() error
}

// FileStateStore keeps the pending payment in a JSON file.
type FileStateStore struct {
	Path string
	mu   sync.Mutex
}

func (s *FileStateStore) Save(p *PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *FileStateStore) Load() (*PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var p PendingPayment
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *FileStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStateStore is the in-process variant, used in tests.
type MemoryStateStore struct {
	mu      sync.Mutex
	pending *PendingPayment
}

func (s *MemoryStateStore) Save(p *PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.pending = &cp
	return nil
}

func (s *MemoryStateStore) Load() (*PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, nil
	}
	cp := *s.pending
	return &cp, nil
}

func (s *MemoryStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

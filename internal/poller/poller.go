package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State of the payment polling machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingPayment
	StatePaid
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StatePaid:
		return "paid"
	case StateExpired:
		return "expired"
	default:
		return "idle"
	}
}

// CheckResponse is the reconciliation endpoint's answer, reduced to the
// fields the poller acts on.
type CheckResponse struct {
	Success          bool   `json:"success"`
	Status           string `json:"status"`
	StopPolling      bool   `json:"stopPolling"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
	AlreadySent      bool   `json:"alreadySent"`
	StorageNotFound  bool   `json:"storageNotFound"`
}

// Poller drives the client side of the reconciliation interlock: it polls
// the server at a fixed interval until the payment confirms, the server
// signals stopPolling, or the payment window expires. Polling can be paused
// (tab hidden) and resumed; resuming fires an immediate out-of-band poll so
// a payment confirmed in the background is not missed.
type Poller struct {
	Endpoint   string
	HTTPClient *http.Client
	Interval   time.Duration // default 10s
	Expiry     time.Duration // default 15m
	States     StateStore
	Logger     *zap.Logger

	// OnTransition is invoked for every state change, with the response
	// that triggered it when there is one.
	OnTransition func(State, *CheckResponse)

	mu       sync.Mutex
	state    State
	paused   bool
	pending  *PendingPayment
	resumeCh chan struct{}
	nowFunc  func() time.Time
}

func (p *Poller) init() {
	if p.resumeCh == nil {
		p.resumeCh = make(chan struct{}, 1)
	}
	if p.nowFunc == nil {
		p.nowFunc = time.Now
	}
	if p.Interval <= 0 {
		p.Interval = 10 * time.Second
	}
	if p.Expiry <= 0 {
		p.Expiry = 15 * time.Minute
	}
}

// Begin enters AwaitingPayment for a freshly generated payment intent and
// persists it so a restart within the window resumes the same transaction.
func (p *Poller) Begin(pending *PendingPayment) error {
	p.init()
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = p.nowFunc()
	}
	if p.States != nil {
		if err := p.States.Save(pending); err != nil {
			return fmt.Errorf("persist pending payment: %w", err)
		}
	}
	p.mu.Lock()
	p.pending = pending
	p.mu.Unlock()
	p.transition(StateAwaitingPayment, nil)
	return nil
}

// ResumeOrBegin restores a persisted pending payment still inside the expiry
// window, or begins with the supplied one. Stale state is discarded.
func (p *Poller) ResumeOrBegin(pending *PendingPayment) error {
	p.init()
	if p.States != nil {
		if saved, err := p.States.Load(); err == nil && saved != nil {
			if p.nowFunc().Sub(saved.CreatedAt) < p.Expiry {
				return p.Begin(saved)
			}
			_ = p.States.Clear()
		}
	}
	return p.Begin(pending)
}

// Restart resets local state for a freshly generated payment intent. The
// previous order record server-side is left to age out naturally.
func (p *Poller) Restart(pending *PendingPayment) error {
	if p.States != nil {
		_ = p.States.Clear()
	}
	p.mu.Lock()
	p.state = StateIdle
	p.mu.Unlock()
	return p.Begin(pending)
}

// Pause suspends polling (page/tab not visible).
func (p *Poller) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume lifts the suspension and triggers an immediate out-of-band poll.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
	select {
	case p.resumeCh <- struct{}{}:
	default:
	}
}

// State reports the current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run polls until the payment settles, the window expires, or ctx ends.
// It returns the final state.
func (p *Poller) Run(ctx context.Context) State {
	p.init()
	p.mu.Lock()
	pending := p.pending
	p.mu.Unlock()
	if pending == nil {
		return p.State()
	}

	deadline := pending.CreatedAt.Add(p.Expiry)
	expireTimer := time.NewTimer(time.Until(deadline))
	defer expireTimer.Stop()
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	// First check fires immediately; waiting a full interval would delay a
	// payment that confirmed before polling started.
	if done := p.poll(ctx, pending.TransactionID); done {
		return p.State()
	}

	for {
		select {
		case <-ctx.Done():
			return p.State()
		case <-expireTimer.C:
			p.transition(StateExpired, nil)
			return StateExpired
		case <-p.resumeCh:
			if done := p.poll(ctx, pending.TransactionID); done {
				return p.State()
			}
		case <-ticker.C:
			p.mu.Lock()
			paused := p.paused
			p.mu.Unlock()
			if paused {
				continue
			}
			if done := p.poll(ctx, pending.TransactionID); done {
				return p.State()
			}
		}
	}
}

// poll performs one status check. Returns true when polling should stop.
func (p *Poller) poll(ctx context.Context, transactionID string) bool {
	resp, err := p.check(ctx, transactionID)
	if err != nil {
		// Any non-success poll is retried on the next interval.
		p.logger().Warn("status check failed", zap.String("transactionId", transactionID), zap.Error(err))
		return false
	}

	// Any successful paid answer settles the payment. The storageNotFound
	// shape reports a confirmed payment with no bookkeeping flags at all.
	if resp.Success && resp.Status == "paid" {
		if p.States != nil {
			_ = p.States.Clear()
		}
		p.transition(StatePaid, resp)
		return true
	}
	if resp.StopPolling {
		// Server-side interlock: conversion handled, cancel the interval.
		p.transition(p.State(), resp)
		return true
	}
	return false
}

func (p *Poller) check(ctx context.Context, transactionID string) (*CheckResponse, error) {
	body, err := json.Marshal(map[string]string{"transactionId": transactionID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", res.StatusCode)
	}
	var out CheckResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Poller) transition(next State, resp *CheckResponse) {
	p.mu.Lock()
	changed := p.state != next
	p.state = next
	cb := p.OnTransition
	p.mu.Unlock()
	if changed && cb != nil {
		cb(next, resp)
	}
}

func (p *Poller) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

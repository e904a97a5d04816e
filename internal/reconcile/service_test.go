package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rechargehub/pix-reconcile/internal/config"
	"github.com/rechargehub/pix-reconcile/internal/dedup"
	"github.com/rechargehub/pix-reconcile/internal/gateway"
	"github.com/rechargehub/pix-reconcile/internal/ledger"
	"github.com/rechargehub/pix-reconcile/internal/orders"
)

type scriptedProvider struct {
	mu    sync.Mutex
	txn   *gateway.Transaction
	err   error
	calls int
}

func (p *scriptedProvider) Name() string { return "ezzpag" }

func (p *scriptedProvider) FetchStatus(ctx context.Context, transactionID string) (*gateway.Transaction, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.txn, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type countingSink struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSink) Name() string { return "counting" }

func (s *countingSink) Deliver(ctx context.Context, d *ledger.Delivery) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return nil
}

func (s *countingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func paidTransaction(id string) *gateway.Transaction {
	return &gateway.Transaction{
		ID:          id,
		RawStatus:   "paid",
		Status:      gateway.StatusPaid,
		AmountCents: 10000,
		PaidAt:      "2026-01-02T10:05:00Z",
	}
}

func pendingTransaction(id string) *gateway.Transaction {
	return &gateway.Transaction{
		ID:          id,
		RawStatus:   "waiting_payment",
		Status:      gateway.StatusWaitingPayment,
		AmountCents: 10000,
	}
}

type fixture struct {
	service  *Service
	store    *orders.MemoryStore
	provider *scriptedProvider
	sink     *countingSink
}

func newFixture(t *testing.T, txn *gateway.Transaction) *fixture {
	t.Helper()
	store := orders.NewMemoryStore(24 * time.Hour)
	provider := &scriptedProvider{txn: txn}
	registry := gateway.NewRegistry("ezzpag", provider)
	guard := dedup.NewGuard(10*time.Second, time.Hour, nil)
	sink := &countingSink{}
	fanout := &ledger.Fanout{Sinks: []ledger.Sink{sink}, Timeout: time.Second}
	cfg := &config.Config{
		DefaultGateway: "ezzpag",
		PlatformName:   "RecarGames",
		ProductName:    "Recarga Free Fire",
	}
	return &fixture{
		service:  NewService(store, registry, guard, fanout, cfg, nil),
		store:    store,
		provider: provider,
		sink:     sink,
	}
}

func saveOrder(t *testing.T, store *orders.MemoryStore, txnID string) {
	t.Helper()
	err := store.Save(context.Background(), &orders.Order{
		OrderID:       "order-" + txnID,
		TransactionID: txnID,
		AmountCents:   10000,
		Gateway:       "ezzpag",
		Status:        orders.StatusPending,
		CreatedAt:     time.Now(),
		Tracking:      map[string]string{"gclid": "abc"},
	})
	if err != nil {
		t.Fatalf("save order: %v", err)
	}
}

func TestCheckTransaction_PaidHappyPath(t *testing.T) {
	f := newFixture(t, paidTransaction("txn-1"))
	saveOrder(t, f.store, "txn-1")
	ctx := context.Background()

	res, err := f.service.CheckTransaction(ctx, "txn-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Success || res.Status != orders.StatusPaid {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.StopPolling {
		t.Fatal("expected stopPolling on first paid confirmation")
	}
	if f.sink.callCount() != 1 {
		t.Fatalf("expected one conversion delivery, got %d", f.sink.callCount())
	}

	ord, _ := f.store.Get(ctx, "txn-1")
	if ord.Status != orders.StatusPaid || !ord.SentPaid {
		t.Fatalf("expected persisted paid state, got %+v", ord)
	}
}

func TestCheckTransaction_SecondCallShortCircuitsLocally(t *testing.T) {
	f := newFixture(t, paidTransaction("txn-1"))
	saveOrder(t, f.store, "txn-1")
	ctx := context.Background()

	if _, err := f.service.CheckTransaction(ctx, "txn-1"); err != nil {
		t.Fatalf("first check: %v", err)
	}
	res, err := f.service.CheckTransaction(ctx, "txn-1")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !res.AlreadyProcessed || !res.StopPolling {
		t.Fatalf("unexpected result %+v", res)
	}
	// The local record answers; the gateway is not consulted again.
	if f.provider.callCount() != 1 {
		t.Fatalf("expected one gateway call, got %d", f.provider.callCount())
	}
	if f.sink.callCount() != 1 {
		t.Fatalf("expected no second delivery, got %d", f.sink.callCount())
	}
}

func TestCheckTransaction_PaidWithoutLocalOrder(t *testing.T) {
	f := newFixture(t, paidTransaction("txn-missing"))

	res, err := f.service.CheckTransaction(context.Background(), "txn-missing")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.StorageNotFound {
		t.Fatalf("expected storageNotFound, got %+v", res)
	}
	if f.sink.callCount() != 0 {
		t.Fatal("expected no delivery without a local order record")
	}
}

func TestCheckTransaction_PendingIdempotent(t *testing.T) {
	f := newFixture(t, pendingTransaction("txn-1"))
	saveOrder(t, f.store, "txn-1")
	ctx := context.Background()

	res, err := f.service.CheckTransaction(ctx, "txn-1")
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if res.Status != orders.StatusPending || res.StopPolling {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.sink.callCount() != 1 {
		t.Fatalf("expected one pending delivery, got %d", f.sink.callCount())
	}

	res, err = f.service.CheckTransaction(ctx, "txn-1")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !res.AlreadySent {
		t.Fatalf("expected alreadySent, got %+v", res)
	}
	if f.sink.callCount() != 1 {
		t.Fatalf("expected no second delivery, got %d", f.sink.callCount())
	}

	ord, _ := f.store.Get(ctx, "txn-1")
	if !ord.SentPending {
		t.Fatal("expected persisted sentPending flag")
	}
}

func TestCheckTransaction_PendingWithoutOrderReportsNothing(t *testing.T) {
	f := newFixture(t, pendingTransaction("txn-missing"))

	res, err := f.service.CheckTransaction(context.Background(), "txn-missing")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.AlreadySent {
		t.Fatalf("expected alreadySent for missing order, got %+v", res)
	}
	if f.sink.callCount() != 0 {
		t.Fatal("expected no delivery without a local record")
	}
}

func TestCheckTransaction_OtherStatusPassesThrough(t *testing.T) {
	f := newFixture(t, &gateway.Transaction{
		ID:        "txn-1",
		RawStatus: "refused",
		Status:    gateway.StatusOther,
	})
	saveOrder(t, f.store, "txn-1")

	res, err := f.service.CheckTransaction(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Status != "refused" || res.StopPolling {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.sink.callCount() != 0 {
		t.Fatal("expected no delivery for a refused transaction")
	}
}

func TestCheckTransaction_GatewayErrorSurfaces(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.err = &gateway.UpstreamError{Gateway: "ezzpag", StatusCode: 502}
	saveOrder(t, f.store, "txn-1")

	_, err := f.service.CheckTransaction(context.Background(), "txn-1")
	var ue *gateway.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestCheckTransaction_ConcurrentPaidExactlyOneDelivery(t *testing.T) {
	f := newFixture(t, paidTransaction("txn-1"))
	saveOrder(t, f.store, "txn-1")

	const callers = 20
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.service.CheckTransaction(context.Background(), "txn-1")
		}()
	}
	wg.Wait()

	if f.sink.callCount() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", f.sink.callCount())
	}
}

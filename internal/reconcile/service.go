package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/config"
	"github.com/rechargehub/pix-reconcile/internal/conversion"
	"github.com/rechargehub/pix-reconcile/internal/dedup"
	"github.com/rechargehub/pix-reconcile/internal/gateway"
	"github.com/rechargehub/pix-reconcile/internal/ledger"
	"github.com/rechargehub/pix-reconcile/internal/metrics"
	"github.com/rechargehub/pix-reconcile/internal/orders"
)

// TransactionSummary is the slice of gateway data echoed back to the poller.
type TransactionSummary struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	PaidAt   string `json:"paidAt,omitempty"`
	Customer string `json:"customer,omitempty"`
}

// Result is the reconciliation outcome for one poll. StopPolling tells the
// client its interval timer can be cancelled; AlreadyProcessed and
// AlreadySent are expected steady-state outcomes, not errors.
type Result struct {
	Success          bool                `json:"success"`
	Status           string              `json:"status,omitempty"`
	Message          string              `json:"message,omitempty"`
	StopPolling      bool                `json:"stopPolling,omitempty"`
	AlreadyProcessed bool                `json:"alreadyProcessed,omitempty"`
	AlreadySent      bool                `json:"alreadySent,omitempty"`
	StorageNotFound  bool                `json:"storageNotFound,omitempty"`
	Note             string              `json:"note,omitempty"`
	Transaction      *TransactionSummary `json:"transactionData,omitempty"`
}

// Service reconciles a transaction's gateway status with the local order
// record, gating conversion reporting through the dedup guard. Handlers may
// run any number of CheckTransaction calls concurrently for the same id.
type Service struct {
	store    orders.Store
	gateways *gateway.Registry
	guard    *dedup.Guard
	fanout   *ledger.Fanout
	cfg      *config.Config
	logger   *zap.Logger
	nowFunc  func() time.Time
}

func NewService(store orders.Store, gateways *gateway.Registry, guard *dedup.Guard, fanout *ledger.Fanout, cfg *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		gateways: gateways,
		guard:    guard,
		fanout:   fanout,
		cfg:      cfg,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// CheckTransaction runs one reconciliation pass for a transaction id.
// A non-nil error means the gateway could not be consulted; every other
// outcome is a successful Result.
func (s *Service) CheckTransaction(ctx context.Context, transactionID string) (*Result, error) {
	ord, err := s.store.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// Steady state after a conversion fired: answer from the local record
	// without hitting the gateway again.
	if ord != nil && ord.Status == orders.StatusPaid {
		s.logger.Debug("transaction already paid locally", zap.String("transactionId", transactionID))
		return &Result{
			Success:          true,
			Status:           orders.StatusPaid,
			Message:          "transaction already processed as paid",
			AlreadyProcessed: true,
			StopPolling:      true,
		}, nil
	}

	identifier := s.cfg.DefaultGateway
	if ord != nil && ord.Gateway != "" {
		identifier = ord.Gateway
	}
	provider, err := s.gateways.ProviderFor(identifier)
	if err != nil {
		return nil, err
	}

	txn, err := provider.FetchStatus(ctx, transactionID)
	if err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues(provider.Name()).Inc()
		s.logger.Error("gateway status fetch failed",
			zap.String("gateway", provider.Name()),
			zap.String("transactionId", transactionID),
			zap.Error(err))
		return nil, err
	}

	metrics.StatusChecksTotal.WithLabelValues(string(txn.Status)).Inc()
	s.logger.Info("polled transaction status",
		zap.String("transactionId", transactionID),
		zap.String("gateway", provider.Name()),
		zap.String("status", txn.RawStatus))

	switch txn.Status {
	case gateway.StatusPaid:
		return s.handlePaid(ctx, transactionID, ord, txn), nil
	case gateway.StatusWaitingPayment:
		return s.handleWaitingPayment(ctx, transactionID, ord, txn), nil
	default:
		// Refused, cancelled, unknown: pass the raw status through with no
		// side effects.
		return &Result{
			Success:     true,
			Status:      txn.RawStatus,
			Message:     "current status: " + txn.RawStatus,
			Transaction: summarize(txn),
		}, nil
	}
}

func (s *Service) handlePaid(ctx context.Context, transactionID string, ord *orders.Order, txn *gateway.Transaction) *Result {
	// The payment is real even when the originating record is gone (process
	// restart between order creation and payment). Report it distinctly so
	// the caller does not treat it as a retryable failure.
	if ord == nil {
		s.logger.Warn("paid transaction has no local order record",
			zap.String("transactionId", transactionID))
		return &Result{
			Success:         true,
			Status:          orders.StatusPaid,
			Message:         "payment confirmed",
			StorageNotFound: true,
			Note:            "order record not found locally; conversion not forwarded",
			Transaction:     summarize(txn),
		}
	}

	res := s.guard.TryAcquire(ord, transactionID, orders.ConversionPaid)
	if res.Decision != dedup.Acquired {
		metrics.DuplicatesSuppressedTotal.WithLabelValues(string(orders.ConversionPaid)).Inc()
		s.logger.Info("duplicate paid conversion suppressed",
			zap.String("transactionId", transactionID),
			zap.Duration("elapsed", res.Elapsed))
		return &Result{
			Success:          true,
			Status:           orders.StatusPaid,
			Message:          "duplicate conversion ignored",
			StopPolling:      true,
			AlreadyProcessed: true,
		}
	}

	paidAt := conversion.ParseGatewayTime(txn.PaidAt)
	if paidAt.IsZero() {
		paidAt = s.nowFunc()
	}
	if err := s.store.MarkPaid(ctx, transactionID, paidAt); err != nil {
		s.logger.Error("persist paid status failed",
			zap.String("transactionId", transactionID), zap.Error(err))
	}

	event := conversion.BuildEvent(conversion.BuildParams{
		Order:       ord,
		Transaction: txn,
		Status:      "paid",
		Platform:    s.cfg.PlatformName,
		ProductName: s.cfg.ProductName,
		IsTest:      s.cfg.UtmifyTestMode,
		Now:         s.nowFunc(),
	})
	s.fanout.Dispatch(ctx, &ledger.Delivery{Event: event, Order: ord, Transaction: txn})

	// At-most-once: the flag is set whether or not the sinks succeeded.
	// A lost conversion beats a duplicate one.
	if err := s.store.MarkConversionSent(ctx, transactionID, orders.ConversionPaid); err != nil && err != orders.ErrAlreadySent {
		s.logger.Error("persist sent-paid flag failed",
			zap.String("transactionId", transactionID), zap.Error(err))
	}

	return &Result{
		Success:     true,
		Status:      orders.StatusPaid,
		Message:     "payment confirmed",
		StopPolling: true,
		Transaction: summarize(txn),
	}
}

func (s *Service) handleWaitingPayment(ctx context.Context, transactionID string, ord *orders.Order, txn *gateway.Transaction) *Result {
	pending := &Result{
		Success: true,
		Status:  orders.StatusPending,
		Message: "awaiting payment",
	}

	// Without a stored record there is nothing complete enough to report.
	if ord == nil {
		pending.AlreadySent = true
		return pending
	}

	res := s.guard.TryAcquire(ord, transactionID, orders.ConversionPending)
	if res.Decision != dedup.Acquired {
		metrics.DuplicatesSuppressedTotal.WithLabelValues(string(orders.ConversionPending)).Inc()
		pending.AlreadySent = true
		pending.Note = "pending conversion already sent"
		return pending
	}

	event := conversion.BuildEvent(conversion.BuildParams{
		Order:       ord,
		Transaction: txn,
		Status:      "waiting_payment",
		Platform:    s.cfg.PlatformName,
		ProductName: s.cfg.ProductName,
		IsTest:      s.cfg.UtmifyTestMode,
		Now:         s.nowFunc(),
	})
	s.fanout.Dispatch(ctx, &ledger.Delivery{Event: event, Order: ord, Transaction: txn})

	if err := s.store.MarkConversionSent(ctx, transactionID, orders.ConversionPending); err != nil && err != orders.ErrAlreadySent {
		s.logger.Error("persist sent-pending flag failed",
			zap.String("transactionId", transactionID), zap.Error(err))
	}

	pending.Transaction = summarize(txn)
	return pending
}

func summarize(txn *gateway.Transaction) *TransactionSummary {
	return &TransactionSummary{
		ID:       txn.ID,
		Status:   txn.RawStatus,
		Amount:   txn.AmountCents,
		PaidAt:   txn.PaidAt,
		Customer: txn.Customer.Name,
	}
}

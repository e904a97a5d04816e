package orders

import (
	"context"
	"time"
)

// Store persists orders keyed by both order id and transaction id.
// Get returns (nil, nil) when no record matches.
type Store interface {
	// Save upserts the order under both keys and sweeps out records older
	// than the store's TTL.
	Save(ctx context.Context, o *Order) error
	// Get looks the order up by order id or transaction id.
	Get(ctx context.Context, id string) (*Order, error)
	// SetStatus conditionally moves the order from expected to next status.
	// Returns ErrStatusMismatch when the current status differs.
	SetStatus(ctx context.Context, id, expected, next string) error
	// MarkPaid records the terminal paid status and the payment time.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
	// MarkConversionSent sets the sent-flag for kind. Returns ErrAlreadySent
	// when the flag was already set, so callers can detect lost races.
	MarkConversionSent(ctx context.Context, id string, kind ConversionKind) error
	// All returns the stored orders, one entry per logical order.
	All(ctx context.Context) ([]*Order, error)
}

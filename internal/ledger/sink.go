package ledger

import (
	"context"

	"github.com/rechargehub/pix-reconcile/internal/conversion"
	"github.com/rechargehub/pix-reconcile/internal/gateway"
	"github.com/rechargehub/pix-reconcile/internal/orders"
)

// Delivery is one conversion headed for the ledgers, with enough context for
// each sink to build its own row shape.
type Delivery struct {
	Event       *conversion.Event
	Order       *orders.Order
	Transaction *gateway.Transaction
}

// Sink forwards a conversion to one external ledger. Implementations decide
// for themselves whether a delivery applies to them (a sheet sink skips
// pending conversions, the MCC sink skips deliveries without a ctax) and
// return nil for deliveries they skip.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, d *Delivery) error
}

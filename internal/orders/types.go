package orders

import (
	"errors"
	"time"
)

// Order statuses. Transitions are forward-only: pending may move to paid,
// cancelled or failed; paid is terminal.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// ConversionKind identifies which conversion a sent-flag refers to.
type ConversionKind string

const (
	ConversionPending ConversionKind = "pending"
	ConversionPaid    ConversionKind = "paid"
)

// Customer is the checkout customer data. The pipeline passes it through to
// the ledger sinks; it never interprets the fields beyond hashing.
type Customer struct {
	Name     string `json:"name" dynamodbav:"name"`
	Email    string `json:"email" dynamodbav:"email"`
	Phone    string `json:"phone" dynamodbav:"phone"`
	Document string `json:"document" dynamodbav:"document"`
}

// Order represents one checkout attempt. It is indexed both by OrderID and,
// once the gateway assigns one, by TransactionID: one logical record, two keys.
type Order struct {
	OrderID       string            `json:"orderId" dynamodbav:"order_id"`
	TransactionID string            `json:"transactionId,omitempty" dynamodbav:"transaction_id,omitempty"`
	AmountCents   int64             `json:"amountCents" dynamodbav:"amount_cents"`
	Gateway       string            `json:"gateway,omitempty" dynamodbav:"gateway,omitempty"`
	Customer      Customer          `json:"customer" dynamodbav:"customer"`
	Tracking      map[string]string `json:"trackingParameters,omitempty" dynamodbav:"tracking,omitempty"`
	Status        string            `json:"status" dynamodbav:"status"`
	CreatedAt     time.Time         `json:"createdAt" dynamodbav:"created_at"`
	PaidAt        time.Time         `json:"paidAt,omitempty" dynamodbav:"paid_at,omitempty"`

	// Conversion flags. SentPaid may flip to true at most once per lifetime.
	SentPending bool `json:"sentPending,omitempty" dynamodbav:"sent_pending"`
	SentPaid    bool `json:"sentPaid,omitempty" dynamodbav:"sent_paid"`

	// Attribution extras captured at checkout, passed through to the ledgers.
	IP        string `json:"ip,omitempty" dynamodbav:"ip,omitempty"`
	City      string `json:"city,omitempty" dynamodbav:"city,omitempty"`
	UserAgent string `json:"userAgent,omitempty" dynamodbav:"user_agent,omitempty"`
	Product   string `json:"product,omitempty" dynamodbav:"product,omitempty"`
	Coupons   string `json:"coupons,omitempty" dynamodbav:"coupons,omitempty"`
}

// SentFlag reports the persisted conversion flag for the given kind.
func (o *Order) SentFlag(kind ConversionKind) bool {
	if kind == ConversionPaid {
		return o.SentPaid
	}
	return o.SentPending
}

var (
	// ErrAlreadySent indicates the conversion flag was already set.
	ErrAlreadySent = errors.New("conversion already sent")
	// ErrStatusMismatch indicates a conditional status update failed.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
)

package validation

// CustomerPayload is the checkout customer block.
type CustomerPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Document string `json:"document" validate:"required"`
}

// CreateOrderRequest is the payload for POST /orders: the data the checkout
// submits once a PIX has been generated for the customer.
type CreateOrderRequest struct {
	TransactionID string            `json:"transactionId" validate:"required"`      // id assigned by the gateway
	AmountCents   int64             `json:"amountCents" validate:"required,min=1"`  // gross charge in cents
	Gateway       string            `json:"gateway,omitempty"`                      // gateway identifier or client-side alias
	Customer      CustomerPayload   `json:"customer" validate:"required"`           // pass-through beyond hashing
	Tracking      map[string]string `json:"trackingParameters,omitempty"`           // attribution params captured at checkout
	Product       string            `json:"product,omitempty"`                      // e.g. "100 Diamantes"
	Coupons       string            `json:"coupons,omitempty"`
	City          string            `json:"city,omitempty"`
}

// CheckStatusRequest is the payload for POST /check-transaction-status.
type CheckStatusRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
}

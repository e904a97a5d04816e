package gateway

import "strings"

// Status is the canonical three-way payment outcome used internally,
// independent of any gateway's vocabulary.
type Status string

const (
	StatusPaid           Status = "paid"
	StatusWaitingPayment Status = "waiting_payment"
	StatusOther          Status = "other"
)

// Normalize maps a raw gateway status onto the canonical enum. Matching is
// case-insensitive; anything unknown or ambiguous maps to Other, never to Paid.
func Normalize(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "approved":
		return StatusPaid
	case "waiting_payment":
		return StatusWaitingPayment
	default:
		return StatusOther
	}
}

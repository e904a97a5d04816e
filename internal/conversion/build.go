package conversion

import (
	"fmt"
	"time"

	"github.com/rechargehub/pix-reconcile/internal/gateway"
	"github.com/rechargehub/pix-reconcile/internal/orders"
)

// Fallbacks for customer fields a gateway omits on some transactions.
const (
	fallbackCustomerName  = "Cliente"
	fallbackCustomerEmail = "nao-informado@email.com"
)

// BuildParams collects the inputs for one conversion event.
type BuildParams struct {
	Order       *orders.Order
	Transaction *gateway.Transaction
	Status      string // ledger status: "paid" or "waiting_payment"
	Platform    string
	ProductName string
	IsTest      bool
	Now         time.Time
}

// BuildEvent merges the stored order with live gateway data into a ledger
// event. The gateway wins for amount and customer identity; the stored order
// wins for tracking parameters and creation time.
func BuildEvent(p BuildParams) *Event {
	ord, txn := p.Order, p.Transaction

	createdAt := ord.CreatedAt
	if createdAt.IsZero() {
		createdAt = ParseGatewayTime(txn.CreatedAt)
	}
	if createdAt.IsZero() {
		createdAt = p.Now
	}

	var approvedDate *string
	if p.Status == "paid" {
		paidAt := ParseGatewayTime(txn.PaidAt)
		if paidAt.IsZero() {
			paidAt = p.Now
		}
		ts := LedgerTimestamp(paidAt)
		approvedDate = &ts
	}

	productName := p.ProductName
	if ord.Product != "" {
		productName = ord.Product
	}

	return &Event{
		OrderID:            txn.ID,
		Platform:           p.Platform,
		PaymentMethod:      "pix",
		Status:             p.Status,
		CreatedAt:          LedgerTimestamp(createdAt),
		ApprovedDate:       approvedDate,
		RefundedAt:         nil,
		Customer:           buildCustomer(ord, txn),
		Products: []Product{{
			ID:           fmt.Sprintf("recarga-%s", txn.ID),
			Name:         productName,
			Quantity:     1,
			PriceInCents: txn.AmountCents,
		}},
		TrackingParameters: FilterTracking(ord.Tracking),
		Commission:         NewCommission(txn.AmountCents),
		IsTest:             p.IsTest,
	}
}

func buildCustomer(ord *orders.Order, txn *gateway.Transaction) Customer {
	name := firstNonEmpty(txn.Customer.Name, ord.Customer.Name, fallbackCustomerName)
	email := firstNonEmpty(txn.Customer.Email, ord.Customer.Email, fallbackCustomerEmail)
	document := firstNonEmpty(txn.Customer.Document, ord.Customer.Document, "N/A")

	var phone *string
	if p := firstNonEmpty(txn.Customer.Phone, ord.Customer.Phone); p != "" {
		phone = &p
	}

	ip := firstNonEmpty(txn.IP, ord.IP, "unknown")

	return Customer{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Document: document,
		Country:  "BR",
		IP:       ip,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

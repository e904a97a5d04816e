package conversion

import (
	"testing"
	"time"

	"github.com/rechargehub/pix-reconcile/internal/gateway"
	"github.com/rechargehub/pix-reconcile/internal/orders"
)

func testOrder() *orders.Order {
	return &orders.Order{
		OrderID:       "order-1",
		TransactionID: "txn-1",
		AmountCents:   10000,
		Customer: orders.Customer{
			Name:  "Maria Silva",
			Email: "maria@example.com",
			Phone: "11987654321",
		},
		Tracking:  map[string]string{"gclid": "abc", "utm_source": "google"},
		Status:    orders.StatusPending,
		CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		IP:        "10.0.0.1",
	}
}

func testTransaction() *gateway.Transaction {
	return &gateway.Transaction{
		ID:          "txn-1",
		RawStatus:   "paid",
		Status:      gateway.StatusPaid,
		AmountCents: 10000,
		PaidAt:      "2026-01-02T10:05:00Z",
		Customer: orders.Customer{
			Name:  "Maria S.",
			Email: "maria@example.com",
		},
		IP: "200.1.2.3",
	}
}

func TestBuildEvent_Paid(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 6, 0, 0, time.UTC)
	ev := BuildEvent(BuildParams{
		Order:       testOrder(),
		Transaction: testTransaction(),
		Status:      "paid",
		Platform:    "RecarGames",
		ProductName: "Recarga Free Fire",
		Now:         now,
	})

	if ev.OrderID != "txn-1" {
		t.Fatalf("orderId = %q, want the transaction id", ev.OrderID)
	}
	if ev.PaymentMethod != "pix" {
		t.Fatalf("paymentMethod = %q", ev.PaymentMethod)
	}
	if ev.CreatedAt != "2026-01-02 10:00:00" {
		t.Fatalf("createdAt = %q", ev.CreatedAt)
	}
	if ev.ApprovedDate == nil || *ev.ApprovedDate != "2026-01-02 10:05:00" {
		t.Fatalf("approvedDate = %v", ev.ApprovedDate)
	}
	if len(ev.Products) != 1 {
		t.Fatalf("expected one product, got %d", len(ev.Products))
	}
	if ev.Products[0].ID != "recarga-txn-1" || ev.Products[0].PriceInCents != 10000 {
		t.Fatalf("unexpected product %+v", ev.Products[0])
	}
	if ev.Commission.GatewayFeeInCents != 698 {
		t.Fatalf("fee = %d", ev.Commission.GatewayFeeInCents)
	}
	// The gateway's customer identity wins over the stored one.
	if ev.Customer.Name != "Maria S." {
		t.Fatalf("customer name = %q", ev.Customer.Name)
	}
	if ev.Customer.IP != "200.1.2.3" {
		t.Fatalf("customer ip = %q", ev.Customer.IP)
	}
	if ev.Gclid() != "abc" {
		t.Fatalf("gclid = %q", ev.Gclid())
	}
}

func TestBuildEvent_PendingHasNoApprovedDate(t *testing.T) {
	ev := BuildEvent(BuildParams{
		Order:       testOrder(),
		Transaction: testTransaction(),
		Status:      "waiting_payment",
		Platform:    "RecarGames",
		ProductName: "Recarga Free Fire",
		Now:         time.Now(),
	})
	if ev.ApprovedDate != nil {
		t.Fatalf("expected nil approvedDate for pending, got %v", *ev.ApprovedDate)
	}
	if ev.Status != "waiting_payment" {
		t.Fatalf("status = %q", ev.Status)
	}
}

func TestBuildEvent_CustomerFallbacks(t *testing.T) {
	ord := testOrder()
	ord.Customer = orders.Customer{}
	ord.IP = ""
	txn := testTransaction()
	txn.Customer = orders.Customer{}
	txn.IP = ""

	ev := BuildEvent(BuildParams{
		Order:       ord,
		Transaction: txn,
		Status:      "paid",
		Platform:    "RecarGames",
		ProductName: "Recarga Free Fire",
		Now:         time.Now(),
	})

	if ev.Customer.Name != "Cliente" {
		t.Fatalf("name fallback = %q", ev.Customer.Name)
	}
	if ev.Customer.Email != "nao-informado@email.com" {
		t.Fatalf("email fallback = %q", ev.Customer.Email)
	}
	if ev.Customer.Document != "N/A" {
		t.Fatalf("document fallback = %q", ev.Customer.Document)
	}
	if ev.Customer.Phone != nil {
		t.Fatal("expected nil phone when absent everywhere")
	}
	if ev.Customer.IP != "unknown" {
		t.Fatalf("ip fallback = %q", ev.Customer.IP)
	}
	if ev.Customer.Country != "BR" {
		t.Fatalf("country = %q", ev.Customer.Country)
	}
}

func TestBuildEvent_ProductOverride(t *testing.T) {
	ord := testOrder()
	ord.Product = "2180 Diamantes"
	ev := BuildEvent(BuildParams{
		Order:       ord,
		Transaction: testTransaction(),
		Status:      "paid",
		Platform:    "RecarGames",
		ProductName: "Recarga Free Fire",
		Now:         time.Now(),
	})
	if ev.Products[0].Name != "2180 Diamantes" {
		t.Fatalf("product name = %q", ev.Products[0].Name)
	}
}

func TestBuildEvent_CreatedAtFallsBackToTransaction(t *testing.T) {
	ord := testOrder()
	ord.CreatedAt = time.Time{}
	txn := testTransaction()
	txn.CreatedAt = "2026-01-02T09:00:00Z"

	ev := BuildEvent(BuildParams{
		Order:       ord,
		Transaction: txn,
		Status:      "paid",
		Platform:    "RecarGames",
		ProductName: "Recarga Free Fire",
		Now:         time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC),
	})
	if ev.CreatedAt != "2026-01-02 09:00:00" {
		t.Fatalf("createdAt = %q", ev.CreatedAt)
	}
}

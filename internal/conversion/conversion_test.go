package conversion

import (
	"testing"
	"time"
)

func TestGatewayFeeCents(t *testing.T) {
	cases := []struct {
		gross int64
		want  int64
	}{
		{10000, 698},  // 549 + 149
		{1990, 258},   // round(109.25) = 109, + 149
		{0, 149},      // flat fee only
		{100000, 5639}, // 5490 + 149
	}
	for _, c := range cases {
		if got := GatewayFeeCents(c.gross); got != c.want {
			t.Errorf("GatewayFeeCents(%d) = %d, want %d", c.gross, got, c.want)
		}
	}
}

func TestNewCommission(t *testing.T) {
	com := NewCommission(10000)
	if com.TotalPriceInCents != 10000 {
		t.Fatalf("total = %d", com.TotalPriceInCents)
	}
	if com.GatewayFeeInCents != 698 {
		t.Fatalf("fee = %d", com.GatewayFeeInCents)
	}
	if com.UserCommissionInCents != 9302 {
		t.Fatalf("commission = %d", com.UserCommissionInCents)
	}
	if com.GatewayFeeInCents+com.UserCommissionInCents != com.TotalPriceInCents {
		t.Fatal("split does not add up to the gross amount")
	}
}

func TestLedgerTimestamp_UTCNoZone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ts := time.Date(2026, 1, 2, 9, 30, 0, 0, loc)
	if got := LedgerTimestamp(ts); got != "2026-01-02 12:30:00" {
		t.Fatalf("LedgerTimestamp = %q", got)
	}
}

func TestParseGatewayTime(t *testing.T) {
	if got := ParseGatewayTime("2026-01-02T10:00:00Z"); got.IsZero() {
		t.Fatal("expected RFC3339 to parse")
	}
	if got := ParseGatewayTime("2026-01-02 10:00:00"); got.IsZero() {
		t.Fatal("expected ledger layout to parse")
	}
	if got := ParseGatewayTime("not-a-time"); !got.IsZero() {
		t.Fatalf("expected zero time for garbage, got %v", got)
	}
	if got := ParseGatewayTime(""); !got.IsZero() {
		t.Fatal("expected zero time for empty input")
	}
}

func TestNormalizeEmail_GmailDotStripping(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"John.Doe@Gmail.com", "johndoe@gmail.com"},
		{"  a.b.c@googlemail.com ", "abc@googlemail.com"},
		{"john.doe@example.com", "john.doe@example.com"}, // dots preserved elsewhere
	}
	for _, c := range cases {
		if got := NormalizeEmail(c.in); got != c.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHashEmail_DotVariantsCollide(t *testing.T) {
	a := HashEmail("john.doe@gmail.com")
	b := HashEmail("johndoe@gmail.com")
	if a == "" || a != b {
		t.Fatalf("expected gmail dot variants to hash identically: %q vs %q", a, b)
	}
	if HashEmail("") != "" {
		t.Fatal("expected empty hash for empty email")
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(11) 98765-4321", "+5511987654321"},
		{"5511987654321", "+5511987654321"},
		{"+55 11 98765 4321", "+5511987654321"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDeliveryProofHash_Deterministic(t *testing.T) {
	a := DeliveryProofHash("txn-1", "maria@example.com", "2026-01-02 12:00:00", "50.00")
	b := DeliveryProofHash("txn-1", "maria@example.com", "2026-01-02 12:00:00", "50.00")
	if a == "" || a != b {
		t.Fatal("expected a deterministic non-empty hash")
	}
	c := DeliveryProofHash("txn-2", "maria@example.com", "2026-01-02 12:00:00", "50.00")
	if a == c {
		t.Fatal("expected different inputs to hash differently")
	}
}

func TestFilterTracking_Whitelist(t *testing.T) {
	raw := map[string]string{
		"utm_source":   "google",
		"gclid":        "abc123",
		"fbclid":       "null", // literal null string is treated as absent
		"internal_ref": "drop-me",
	}
	got := FilterTracking(raw)

	if v := got["utm_source"]; v == nil || *v != "google" {
		t.Fatal("expected utm_source to pass through")
	}
	if v := got["gclid"]; v == nil || *v != "abc123" {
		t.Fatal("expected gclid to pass through")
	}
	if got["fbclid"] != nil {
		t.Fatal("expected literal null to be treated as absent")
	}
	if _, ok := got["internal_ref"]; ok {
		t.Fatal("expected non-whitelisted key to be dropped")
	}
	// Absent whitelisted keys are present with nil values.
	if v, ok := got["wbraid"]; !ok || v != nil {
		t.Fatal("expected absent whitelisted key with nil value")
	}
}

func TestFilterTracking_GadFallbacks(t *testing.T) {
	got := FilterTracking(map[string]string{
		"utm_source":   "google",
		"utm_campaign": "summer",
	})
	if v := got["gad_source"]; v == nil || *v != "google" {
		t.Fatal("expected gad_source to fall back to utm_source")
	}
	if v := got["gad_campaignid"]; v == nil || *v != "summer" {
		t.Fatal("expected gad_campaignid to fall back to utm_campaign")
	}

	// Direct capture wins over the fallback.
	got = FilterTracking(map[string]string{
		"utm_source": "google",
		"gad_source": "direct",
	})
	if v := got["gad_source"]; v == nil || *v != "direct" {
		t.Fatal("expected direct gad_source to win")
	}
}

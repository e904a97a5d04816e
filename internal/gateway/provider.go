package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rechargehub/pix-reconcile/internal/orders"
)

// Transaction is a gateway response normalized onto the canonical contract.
// PaidAt/CreatedAt are passed through as the gateway's own timestamp strings.
type Transaction struct {
	ID          string
	RawStatus   string
	Status      Status
	AmountCents int64
	PaidAt      string
	CreatedAt   string
	Customer    orders.Customer
	IP          string
}

// Provider fetches the authoritative status of a transaction from one
// gateway. Implementations are read-only and side-effect free.
type Provider interface {
	Name() string
	FetchStatus(ctx context.Context, transactionID string) (*Transaction, error)
}

// Registry selects a provider by gateway identifier.
type Registry struct {
	providers       map[string]Provider
	defaultProvider string
}

func NewRegistry(defaultProvider string, providers ...Provider) *Registry {
	r := &Registry{
		providers:       map[string]Provider{},
		defaultProvider: defaultProvider,
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// ProviderFor resolves the provider for an identifier, falling back to the
// default gateway when the identifier is unknown.
func (r *Registry) ProviderFor(identifier string) (Provider, error) {
	if p, ok := r.providers[identifier]; ok {
		return p, nil
	}
	if p, ok := r.providers[r.defaultProvider]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no provider registered for %q", identifier)
}

// fetchJSON performs an authenticated GET and decodes the body into out.
func fetchJSON(ctx context.Context, client *http.Client, gateway, url string, headers map[string]string, out interface{}) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &UpstreamError{Gateway: gateway, Err: fmt.Errorf("create request: %w", err)}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return &UpstreamError{Gateway: gateway, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Gateway: gateway, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Gateway: gateway, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// wireCustomer tolerates the two document shapes gateways use: a plain
// string or an object with a number field.
type wireCustomer struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Document json.RawMessage `json:"document"`
}

func (c wireCustomer) toCustomer() orders.Customer {
	return orders.Customer{
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Document: documentString(c.Document),
	}
}

func documentString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Number string `json:"number"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Number
	}
	return ""
}

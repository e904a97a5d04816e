package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/rechargehub/pix-reconcile/internal/config"
)

const (
	ezzpagBaseURL   = "https://api.ezzypag.com.br"
	ghostpayBaseURL = "https://api.ghostspaysv2.com"
	nitroBaseURL    = "https://api.nitropagamentos.com"
	umbrelaBaseURL  = "https://api-gateway.umbrellapag.com"
)

// EzzpagProvider is the default gateway. Auth is a pre-encoded Basic token.
type EzzpagProvider struct {
	Auth       string
	BaseURL    string
	HTTPClient *http.Client
}

func (p *EzzpagProvider) Name() string { return "ezzpag" }

type ezzpagTransaction struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Amount    int64        `json:"amount"`
	PaidAt    string       `json:"paidAt"`
	CreatedAt string       `json:"createdAt"`
	Customer  wireCustomer `json:"customer"`
	IP        string       `json:"ip"`
}

func (p *EzzpagProvider) FetchStatus(ctx context.Context, transactionID string) (*Transaction, error) {
	if p.Auth == "" {
		return nil, &ConfigurationError{Gateway: "ezzpag", Variable: "EZZPAG_API_AUTH"}
	}
	url := fmt.Sprintf("%s/v1/transactions/%s", baseURL(p.BaseURL, ezzpagBaseURL), transactionID)
	var t ezzpagTransaction
	err := fetchJSON(ctx, p.HTTPClient, "ezzpag", url, map[string]string{
		"Authorization": "Basic " + p.Auth,
		"Content-Type":  "application/json",
	}, &t)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		ID:          t.ID,
		RawStatus:   t.Status,
		Status:      Normalize(t.Status),
		AmountCents: t.Amount,
		PaidAt:      t.PaidAt,
		CreatedAt:   t.CreatedAt,
		Customer:    t.Customer.toCustomer(),
		IP:          t.IP,
	}, nil
}

// GhostpayProvider authenticates with Basic base64(secretKey:companyID).
type GhostpayProvider struct {
	SecretKey  string
	CompanyID  string
	BaseURL    string
	HTTPClient *http.Client
}

func (p *GhostpayProvider) Name() string { return "ghostpay" }

func (p *GhostpayProvider) FetchStatus(ctx context.Context, transactionID string) (*Transaction, error) {
	if p.SecretKey == "" || p.CompanyID == "" {
		return nil, &ConfigurationError{Gateway: "ghostpay", Variable: "GHOSTPAY_API_KEY and GHOSTPAY_COMPANY_ID"}
	}
	url := fmt.Sprintf("%s/functions/v1/transactions/%s", baseURL(p.BaseURL, ghostpayBaseURL), transactionID)
	auth := base64.StdEncoding.EncodeToString([]byte(p.SecretKey + ":" + p.CompanyID))
	var t ezzpagTransaction // same wire shape as ezzpag
	err := fetchJSON(ctx, p.HTTPClient, "ghostpay", url, map[string]string{
		"Authorization": "Basic " + auth,
		"Content-Type":  "application/json",
	}, &t)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		ID:          t.ID,
		RawStatus:   t.Status,
		Status:      Normalize(t.Status),
		AmountCents: t.Amount,
		PaidAt:      t.PaidAt,
		CreatedAt:   t.CreatedAt,
		Customer:    t.Customer.toCustomer(),
		IP:          t.IP,
	}, nil
}

// NitroProvider authenticates with an api_token query parameter and reports
// its status under payment_status rather than status.
type NitroProvider struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (p *NitroProvider) Name() string { return "nitro" }

type nitroTransaction struct {
	ID            string       `json:"id"`
	PaymentStatus string       `json:"payment_status"`
	Amount        int64        `json:"amount"`
	PaidAt        string       `json:"paidAt"`
	CreatedAt     string       `json:"created_at"`
	Customer      wireCustomer `json:"customer"`
	IP            string       `json:"ip"`
}

func (p *NitroProvider) FetchStatus(ctx context.Context, transactionID string) (*Transaction, error) {
	if p.APIKey == "" {
		return nil, &ConfigurationError{Gateway: "nitro", Variable: "NITRO_API_KEY"}
	}
	url := fmt.Sprintf("%s/api/public/v1/transactions/%s?api_token=%s", baseURL(p.BaseURL, nitroBaseURL), transactionID, p.APIKey)
	var t nitroTransaction
	err := fetchJSON(ctx, p.HTTPClient, "nitro", url, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}, &t)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		ID:          t.ID,
		RawStatus:   t.PaymentStatus,
		Status:      Normalize(t.PaymentStatus),
		AmountCents: t.Amount,
		PaidAt:      t.PaidAt,
		CreatedAt:   t.CreatedAt,
		Customer:    t.Customer.toCustomer(),
		IP:          t.IP,
	}, nil
}

// UmbrelaProvider authenticates with an x-api-key header and nests the
// transaction under a data envelope.
type UmbrelaProvider struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (p *UmbrelaProvider) Name() string { return "umbrela" }

type umbrelaEnvelope struct {
	Data ezzpagTransaction `json:"data"`
}

func (p *UmbrelaProvider) FetchStatus(ctx context.Context, transactionID string) (*Transaction, error) {
	if p.APIKey == "" {
		return nil, &ConfigurationError{Gateway: "umbrela", Variable: "UMBRELA_API_KEY"}
	}
	url := fmt.Sprintf("%s/api/user/transactions/%s", baseURL(p.BaseURL, umbrelaBaseURL), transactionID)
	var env umbrelaEnvelope
	err := fetchJSON(ctx, p.HTTPClient, "umbrela", url, map[string]string{
		"x-api-key":  p.APIKey,
		"User-Agent": "UMBRELLAB2B/1.0",
	}, &env)
	if err != nil {
		return nil, err
	}
	t := env.Data
	return &Transaction{
		ID:          t.ID,
		RawStatus:   t.Status,
		Status:      Normalize(t.Status),
		AmountCents: t.Amount,
		PaidAt:      t.PaidAt,
		CreatedAt:   t.CreatedAt,
		Customer:    t.Customer.toCustomer(),
		IP:          t.IP,
	}, nil
}

func baseURL(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

// NewRegistryFromConfig builds the registry with every known gateway client.
func NewRegistryFromConfig(cfg *config.Config, client *http.Client) *Registry {
	if client == nil {
		client = http.DefaultClient
	}
	return NewRegistry(cfg.DefaultGateway,
		&EzzpagProvider{Auth: cfg.EzzpagAPIAuth, HTTPClient: client},
		&GhostpayProvider{SecretKey: cfg.GhostpayAPIKey, CompanyID: cfg.GhostpayCompanyID, HTTPClient: client},
		&NitroProvider{APIKey: cfg.NitroAPIKey, HTTPClient: client},
		&UmbrelaProvider{APIKey: cfg.UmbrelaAPIKey, HTTPClient: client},
	)
}

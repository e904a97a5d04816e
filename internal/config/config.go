package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every environment-driven setting for the service.
// Window values default to the numbers the production deployment runs with;
// they are tunable per environment rather than baked into the code.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	RunLocal bool   `envconfig:"RUN_LOCAL" default:"false"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Order store backend: "memory" (single node) or "dynamo".
	OrderBackend string `envconfig:"ORDER_BACKEND" default:"memory"`
	OrdersTable  string `envconfig:"ORDERS_TABLE" default:"orders"`

	// Queue for re-delivering ledger payloads that exhausted their retries.
	// Empty disables the replay path.
	ReplayQueueURL string `envconfig:"REPLAY_QUEUE_URL" default:""`

	// Region for the AWS clients (Dynamo backend, replay queue, CloudWatch).
	AWSRegion string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Per-gateway credentials. A gateway with missing credentials fails
	// status checks with a configuration error; the others keep working.
	EzzpagAPIAuth     string `envconfig:"EZZPAG_API_AUTH" default:""`
	GhostpayAPIKey    string `envconfig:"GHOSTPAY_API_KEY" default:""`
	GhostpayCompanyID string `envconfig:"GHOSTPAY_COMPANY_ID" default:""`
	NitroAPIKey       string `envconfig:"NITRO_API_KEY" default:""`
	UmbrelaAPIKey     string `envconfig:"UMBRELA_API_KEY" default:""`

	// Gateway used when an order has no recorded gateway identifier.
	DefaultGateway string `envconfig:"DEFAULT_GATEWAY" default:"ezzpag"`

	UtmifyEnabled  bool   `envconfig:"UTMIFY_ENABLED" default:"false"`
	UtmifyAPIToken string `envconfig:"UTMIFY_API_TOKEN" default:""`
	UtmifyURL      string `envconfig:"UTMIFY_URL" default:"https://api.utmify.com.br/api-credentials/orders"`
	UtmifyTestMode bool   `envconfig:"UTMIFY_TEST_MODE" default:"false"`

	// Webhook that appends rows to the spreadsheet ledgers.
	SheetsWebhookURL string `envconfig:"SHEETS_WEBHOOK_URL" default:""`

	// Conversions without a GCLID are still forwarded to the primary sink
	// when true; the sheet ledgers receive them either way.
	ForwardWithoutGclid bool `envconfig:"FORWARD_WITHOUT_GCLID" default:"true"`

	PlatformName string `envconfig:"PLATFORM_NAME" default:"RecarGames"`
	ProductName  string `envconfig:"PRODUCT_NAME" default:"Recarga Free Fire"`

	OrderTTL              time.Duration `envconfig:"ORDER_TTL" default:"24h"`
	DebounceWindow        time.Duration `envconfig:"DEBOUNCE_WINDOW" default:"10s"`
	DebounceSweepTTL      time.Duration `envconfig:"DEBOUNCE_SWEEP_TTL" default:"1h"`
	DebounceSweepInterval time.Duration `envconfig:"DEBOUNCE_SWEEP_INTERVAL" default:"10m"`
	SinkTimeout           time.Duration `envconfig:"SINK_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

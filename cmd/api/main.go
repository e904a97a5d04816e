package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/awsx"
	"github.com/rechargehub/pix-reconcile/internal/config"
	"github.com/rechargehub/pix-reconcile/internal/dedup"
	"github.com/rechargehub/pix-reconcile/internal/gateway"
	"github.com/rechargehub/pix-reconcile/internal/handlers"
	"github.com/rechargehub/pix-reconcile/internal/ledger"
	"github.com/rechargehub/pix-reconcile/internal/logging"
	"github.com/rechargehub/pix-reconcile/internal/metrics"
	"github.com/rechargehub/pix-reconcile/internal/orders"
	"github.com/rechargehub/pix-reconcile/internal/reconcile"
)

func setupRouter(hc handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	handlers.RegisterRoutes(r, hc)
	return r
}

func buildSinks(cfg *config.Config, logger *zap.Logger) []ledger.Sink {
	client := &http.Client{Timeout: cfg.SinkTimeout}

	sinks := []ledger.Sink{
		&ledger.UTMifySink{
			URL:                 cfg.UtmifyURL,
			Token:               cfg.UtmifyAPIToken,
			Enabled:             cfg.UtmifyEnabled,
			ForwardWithoutGclid: cfg.ForwardWithoutGclid,
			HTTPClient:          client,
			Logger:              logger,
		},
	}

	if cfg.SheetsWebhookURL != "" {
		sinks = append(sinks,
			&ledger.CustomerSheetSink{
				URL:        cfg.SheetsWebhookURL,
				Project:    cfg.PlatformName,
				HTTPClient: client,
				Logger:     logger,
			},
			&ledger.AdsSheetSink{
				URL:        cfg.SheetsWebhookURL,
				HTTPClient: client,
				Logger:     logger,
			},
			&ledger.MCCSheetSink{
				URL:        cfg.SheetsWebhookURL,
				HTTPClient: client,
				Logger:     logger,
			},
		)
	}
	return sinks
}

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	metrics.Register()

	ctx := context.Background()

	// AWS clients are only needed for the Dynamo backend and the replay queue.
	var clients *awsx.Clients
	if cfg.OrderBackend == "dynamo" || cfg.ReplayQueueURL != "" {
		clients, err = awsx.NewClients(ctx, cfg.AWSRegion)
		if err != nil {
			logger.Fatal("failed to init aws clients", zap.Error(err))
		}
	}

	var store orders.Store
	switch cfg.OrderBackend {
	case "dynamo":
		store = orders.NewDynamoStore(clients.DynamoDB, cfg.OrdersTable, cfg.OrderTTL)
	default:
		store = orders.NewMemoryStore(cfg.OrderTTL)
	}
	logger.Info("order store ready", zap.String("backend", cfg.OrderBackend))

	registry := gateway.NewRegistryFromConfig(cfg, &http.Client{Timeout: 15 * time.Second})

	guard := dedup.NewGuard(cfg.DebounceWindow, cfg.DebounceSweepTTL, logger)
	go guard.Sweep(ctx, cfg.DebounceSweepInterval)

	fanout := &ledger.Fanout{
		Sinks:   buildSinks(cfg, logger),
		Timeout: cfg.SinkTimeout,
		Logger:  logger,
	}
	if cfg.ReplayQueueURL != "" {
		fanout.Replay = awsx.NewReplayPublisher(clients.SQS, cfg.ReplayQueueURL)
	}

	service := reconcile.NewService(store, registry, guard, fanout, cfg, logger)

	r := setupRouter(handlers.HandlerConfig{
		Service: service,
		Store:   store,
		Cfg:     cfg,
		Logger:  logger,
	})

	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logger.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

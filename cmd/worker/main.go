package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/awsx"
	"github.com/rechargehub/pix-reconcile/internal/config"
	"github.com/rechargehub/pix-reconcile/internal/logging"
)

func main() {
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

	ctx := context.Background()

	var cw awsx.CloudWatchAPI
	if !cfg.RunLocal {
		clients, err := awsx.NewClients(ctx, cfg.AWSRegion)
		if err != nil {
			logger.Fatal("failed to init aws clients", zap.Error(err))
		}
		cw = clients.CloudWatch
	}

	p := NewProcessor(cfg, cw, logger)

	// RUN_LOCAL=true simulates a single replay event for local testing.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"sink":"utmify","event":{"orderId":"local-order-1","status":"paid"}}`
		}
		ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}}
		if err := p.Handle(ctx, ev); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}

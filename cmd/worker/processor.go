package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/awsx"
	"github.com/rechargehub/pix-reconcile/internal/config"
	"github.com/rechargehub/pix-reconcile/internal/ledger"
)

// Processor re-delivers conversion events that failed their first fanout.
// Each SQS record carries one ledger.ReplayPayload naming the sink to retry.
type Processor struct {
	sinks      map[string]ledger.Sink
	cloudwatch awsx.CloudWatchAPI
	timeout    time.Duration
	logger     *zap.Logger
}

// NewProcessor builds the sink set from config the same way the API does, so
// a replayed delivery behaves exactly like a first-attempt one.
func NewProcessor(cfg *config.Config, cw awsx.CloudWatchAPI, logger *zap.Logger) *Processor {
	client := &http.Client{Timeout: cfg.SinkTimeout}

	sinks := map[string]ledger.Sink{}
	register := func(s ledger.Sink) { sinks[s.Name()] = s }

	register(&ledger.UTMifySink{
		URL:                 cfg.UtmifyURL,
		Token:               cfg.UtmifyAPIToken,
		Enabled:             cfg.UtmifyEnabled,
		ForwardWithoutGclid: cfg.ForwardWithoutGclid,
		HTTPClient:          client,
		Logger:              logger,
	})
	if cfg.SheetsWebhookURL != "" {
		register(&ledger.CustomerSheetSink{URL: cfg.SheetsWebhookURL, Project: cfg.PlatformName, HTTPClient: client, Logger: logger})
		register(&ledger.AdsSheetSink{URL: cfg.SheetsWebhookURL, HTTPClient: client, Logger: logger})
		register(&ledger.MCCSheetSink{URL: cfg.SheetsWebhookURL, HTTPClient: client, Logger: logger})
	}

	timeout := cfg.SinkTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Processor{sinks: sinks, cloudwatch: cw, timeout: timeout, logger: logger}
}

// Handle receives an SQS batch event and replays each payload.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Info("received replay batch", zap.Int("records", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Returning the error lets the Lambda runtime retry the batch
			// and eventually park the message on the DLQ.
			p.logger.Error("replay failed", zap.String("messageId", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var payload ledger.ReplayPayload
	if err := json.Unmarshal([]byte(rec.Body), &payload); err != nil {
		// Malformed payloads never become deliverable; count and drop.
		p.emit(ctx, metricReplayDiscard, "unknown")
		p.logger.Error("invalid replay payload, discarding",
			zap.String("messageId", rec.MessageId), zap.Error(err))
		return nil
	}
	if payload.Event == nil {
		p.emit(ctx, metricReplayDiscard, payload.Sink)
		return nil
	}

	sink, ok := p.sinks[payload.Sink]
	if !ok {
		p.emit(ctx, metricReplayDiscard, payload.Sink)
		p.logger.Warn("replay names unknown sink, discarding",
			zap.String("sink", payload.Sink),
			zap.String("orderId", payload.Event.OrderID))
		return nil
	}

	deliverCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := sink.Deliver(deliverCtx, &ledger.Delivery{Event: payload.Event, Order: payload.Order})
	if err != nil {
		p.emit(ctx, metricReplayFailed, payload.Sink)
		return fmt.Errorf("redeliver to %s: %w", payload.Sink, err)
	}

	p.emit(ctx, metricReplayOK, payload.Sink)
	p.logger.Info("replayed conversion",
		zap.String("sink", payload.Sink),
		zap.String("orderId", payload.Event.OrderID),
		zap.Time("firstFailedAt", payload.FailedAt))
	return nil
}

// emit is best-effort; a metrics outage never blocks a replay.
func (p *Processor) emit(ctx context.Context, metric, sink string) {
	if p.cloudwatch == nil {
		return
	}
	_, err := p.cloudwatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricNamespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metric),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  aws.Time(time.Now().UTC()),
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(dimensionSink), Value: aws.String(sink)},
				},
			},
		},
	})
	if err != nil {
		p.logger.Warn("put metric data failed", zap.String("metric", metric), zap.Error(err))
	}
}

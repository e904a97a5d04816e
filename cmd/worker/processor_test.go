package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/config"
	"github.com/rechargehub/pix-reconcile/internal/conversion"
	"github.com/rechargehub/pix-reconcile/internal/ledger"
)

type fakeCloudWatch struct {
	mu      sync.Mutex
	metrics []string
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range params.MetricData {
		f.metrics = append(f.metrics, *d.MetricName)
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func replayBody(t *testing.T, sink string) string {
	t.Helper()
	payload := ledger.ReplayPayload{
		Sink: sink,
		Event: &conversion.Event{
			OrderID:            "txn-1",
			Status:             "paid",
			TrackingParameters: conversion.FilterTracking(map[string]string{"gclid": "abc"}),
		},
		FailedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(b)
}

func TestProcessor_RedeliversToUTMify(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	cfg := &config.Config{
		UtmifyEnabled:       true,
		UtmifyAPIToken:      "tok",
		UtmifyURL:           srv.URL,
		ForwardWithoutGclid: true,
		SinkTimeout:         time.Second,
	}
	cw := &fakeCloudWatch{}
	p := NewProcessor(cfg, cw, zap.NewNop())

	ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m-1", Body: replayBody(t, "utmify")}}}
	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one redelivery, got %d", calls)
	}
	if len(cw.metrics) != 1 || cw.metrics[0] != metricReplayOK {
		t.Fatalf("unexpected metrics %v", cw.metrics)
	}
}

func TestProcessor_FailedRedeliveryReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.Config{
		UtmifyEnabled:       true,
		UtmifyAPIToken:      "tok",
		UtmifyURL:           srv.URL,
		ForwardWithoutGclid: true,
		SinkTimeout:         time.Second,
	}
	cw := &fakeCloudWatch{}
	p := NewProcessor(cfg, cw, zap.NewNop())

	ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m-1", Body: replayBody(t, "utmify")}}}
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected an error so the runtime retries the message")
	}
	if len(cw.metrics) != 1 || cw.metrics[0] != metricReplayFailed {
		t.Fatalf("unexpected metrics %v", cw.metrics)
	}
}

func TestProcessor_DiscardsMalformedPayload(t *testing.T) {
	cw := &fakeCloudWatch{}
	p := NewProcessor(&config.Config{SinkTimeout: time.Second}, cw, zap.NewNop())

	ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m-1", Body: "not json"}}}
	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("expected malformed payloads to be dropped, got %v", err)
	}
	if len(cw.metrics) != 1 || cw.metrics[0] != metricReplayDiscard {
		t.Fatalf("unexpected metrics %v", cw.metrics)
	}
}

func TestProcessor_DiscardsUnknownSink(t *testing.T) {
	cw := &fakeCloudWatch{}
	p := NewProcessor(&config.Config{SinkTimeout: time.Second}, cw, zap.NewNop())

	ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m-1", Body: replayBody(t, "no-such-sink")}}}
	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("expected unknown sinks to be dropped, got %v", err)
	}
	if len(cw.metrics) != 1 || cw.metrics[0] != metricReplayDiscard {
		t.Fatalf("unexpected metrics %v", cw.metrics)
	}
}

package ledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/awsx"
	"github.com/rechargehub/pix-reconcile/internal/conversion"
	"github.com/rechargehub/pix-reconcile/internal/metrics"
	"github.com/rechargehub/pix-reconcile/internal/orders"
)

// ReplayPayload is what lands on the replay queue when a sink delivery
// exhausts its attempts. The worker re-delivers the event later. The order
// snapshot travels with the event so the worker does not depend on the order
// still being in the store.
type ReplayPayload struct {
	Sink     string            `json:"sink"`
	Event    *conversion.Event `json:"event"`
	Order    *orders.Order     `json:"order,omitempty"`
	FailedAt time.Time         `json:"failedAt"`
}

// Fanout dispatches one delivery to every sink. Sinks run independently and
// best-effort: a failure is logged, counted and handed to the replay queue,
// never surfaced to the poller or allowed to block a sibling sink.
type Fanout struct {
	Sinks   []Sink
	Timeout time.Duration
	Replay  *awsx.ReplayPublisher
	Logger  *zap.Logger
}

// Dispatch sends the delivery to all sinks and waits for them to settle.
// The error outcome per sink is intentionally not returned.
func (f *Fanout) Dispatch(ctx context.Context, d *Delivery) {
	var wg sync.WaitGroup
	for _, sink := range f.Sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			f.deliver(ctx, s, d)
		}(sink)
	}
	wg.Wait()
}

func (f *Fanout) deliver(ctx context.Context, s Sink, d *Delivery) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := s.Deliver(ctx, d)
	metrics.SinkDeliveryDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.ConversionsSentTotal.WithLabelValues(s.Name()).Inc()
		return
	}

	metrics.SinkFailuresTotal.WithLabelValues(s.Name()).Inc()
	f.logger().Error("sink delivery failed",
		zap.String("sink", s.Name()),
		zap.String("orderId", d.Event.OrderID),
		zap.Error(err))

	if f.Replay == nil {
		return
	}
	payload, merr := json.Marshal(ReplayPayload{Sink: s.Name(), Event: d.Event, Order: d.Order, FailedAt: time.Now().UTC()})
	if merr != nil {
		f.logger().Error("marshal replay payload", zap.Error(merr))
		return
	}
	// Use a fresh context: the request context may already be done.
	pubCtx, pubCancel := context.WithTimeout(context.Background(), timeout)
	defer pubCancel()
	if perr := f.Replay.Publish(pubCtx, string(payload), map[string]string{
		"sink":     s.Name(),
		"order_id": d.Event.OrderID,
	}); perr != nil {
		f.logger().Error("replay enqueue failed",
			zap.String("sink", s.Name()),
			zap.String("orderId", d.Event.OrderID),
			zap.Error(perr))
	}
}

func (f *Fanout) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

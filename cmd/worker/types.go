package main

// CloudWatch metric names emitted per replay outcome.
const (
	metricNamespace     = "PixReconcile/Replay"
	metricReplayOK      = "ReplayDelivered"
	metricReplayFailed  = "ReplayFailed"
	metricReplayDiscard = "ReplayDiscarded"
	dimensionSink       = "Sink"
)

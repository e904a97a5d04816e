package gateway

import "fmt"

// ConfigurationError reports a missing credential for a gateway. It is fatal
// for that call and never retried automatically.
type ConfigurationError struct {
	Gateway  string
	Variable string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s not configured", e.Gateway, e.Variable)
}

// UpstreamError reports a non-success response or malformed body from a
// gateway. The caller decides retry policy; the poller retries by polling
// again on the next interval.
type UpstreamError struct {
	Gateway    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Gateway, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Gateway, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

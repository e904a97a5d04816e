package conversion

import "time"

// ledgerTimeLayout is what UTMify expects: UTC, no zone designator.
// Local time here causes "createdAt is in Future" rejections.
const ledgerTimeLayout = "2006-01-02 15:04:05"

// LedgerTimestamp formats a time for the ledger payloads.
func LedgerTimestamp(t time.Time) string {
	return t.UTC().Format(ledgerTimeLayout)
}

// ParseGatewayTime parses a gateway timestamp string, trying RFC3339 first.
// Returns the zero time when the string is empty or unparseable.
func ParseGatewayTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

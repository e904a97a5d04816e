package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	require.NotPanics(t, Register)
}

func TestCounterLabels(t *testing.T) {
	before := testutil.ToFloat64(StatusChecksTotal.WithLabelValues("paid"))
	StatusChecksTotal.WithLabelValues("paid").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StatusChecksTotal.WithLabelValues("paid")))

	before = testutil.ToFloat64(DuplicatesSuppressedTotal.WithLabelValues("paid"))
	DuplicatesSuppressedTotal.WithLabelValues("paid").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DuplicatesSuppressedTotal.WithLabelValues("paid")))

	before = testutil.ToFloat64(ConversionsSentTotal.WithLabelValues("utmify"))
	ConversionsSentTotal.WithLabelValues("utmify").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ConversionsSentTotal.WithLabelValues("utmify")))
}

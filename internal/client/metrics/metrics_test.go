package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("GET", OutcomeOK)
	m.ObserveRequest("GET", OutcomeOK)
	m.ObserveRefresh(RefreshFailed)
	m.CacheHits.Inc()

	assert.InDelta(t, 2, testutil.ToFloat64(m.Requests.WithLabelValues("GET", OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Refreshes.WithLabelValues(RefreshFailed)), 0)

	expected := `
# HELP scholardesk_client_cache_hits_total Read cache hits.
# TYPE scholardesk_client_cache_hits_total counter
scholardesk_client_cache_hits_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "scholardesk_client_cache_hits_total"))
}

func TestNew_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestNop(t *testing.T) {
	m := Nop()
	assert.NotPanics(t, func() {
		m.ObserveRequest("POST", OutcomeHTTPError)
		m.CacheEvictions.Inc()
	})
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheEvictions), 0)
}

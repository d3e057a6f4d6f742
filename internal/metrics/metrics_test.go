package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgrows/internal/cache"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Retries.Inc()
	m.Retries.Inc()
	m.RowsStreamed.Add(5)
	m.IngestRows.WithLabelValues("inserted").Add(3)
	m.IngestRows.WithLabelValues("skipped").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Retries))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowsStreamed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IngestRows.WithLabelValues("inserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestRows.WithLabelValues("skipped")))
}

func TestMetrics_TrackCache(t *testing.T) {
	m := New()
	stats := cache.Stats{Hits: 4, Misses: 1}

	require.NoError(t, m.TrackCache("query", func() cache.Stats { return stats }))

	expected := `
# HELP pgrows_cache_hits_total Query results served from the cache.
# TYPE pgrows_cache_hits_total counter
pgrows_cache_hits_total{cache="query"} 4
`
	require.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected), "pgrows_cache_hits_total"))

	stats.Hits = 6
	expected = strings.Replace(expected, "} 4", "} 6", 1)
	require.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected), "pgrows_cache_hits_total"),
		"counter reads live stats at gather time")
}

func TestMetrics_TrackCacheTwiceFails(t *testing.T) {
	m := New()
	stats := func() cache.Stats { return cache.Stats{} }

	require.NoError(t, m.TrackCache("query", stats))
	assert.Error(t, m.TrackCache("query", stats))
	assert.NoError(t, m.TrackCache("fetch", stats), "other names remain available")
}

func TestMetrics_WriteFile(t *testing.T) {
	m := New()
	m.CommandDuration.WithLabelValues("seed", "success").Observe(0.2)
	m.Retries.Inc()

	path := filepath.Join(t.TempDir(), "pgrows.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "pgrows_retry_attempts_total 1")
	assert.Contains(t, text, `pgrows_command_duration_seconds_count{command="seed",outcome="success"} 1`)
}

func TestMetrics_WriteFileBadPath(t *testing.T) {
	m := New()
	err := m.WriteFile(filepath.Join(t.TempDir(), "missing", "dir", "pgrows.prom"))
	assert.Error(t, err)
}

package observability_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/cache"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnComponentEnd(ctx, &domain.ComponentEvent{Component: "a", Output: "text", Duration: time.Millisecond})
	hooks.OnComponentEnd(ctx, &domain.ComponentEvent{Component: "b", Output: "text", Err: errors.New("boom")})
	hooks.OnRunEnd(ctx, &domain.RunEvent{Err: errors.New("boom")})
	hooks.OnLog(ctx, &domain.LogEvent{Log: domain.NewLog("a", "hi")})

	expected := `
# HELP weft_runs_total Total number of flow runs by outcome
# TYPE weft_runs_total counter
weft_runs_total{status="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "weft_runs_total"))

	count, err := testutil.GatherAndCount(m.Registry(), "weft_component_outputs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	expectedLogs := `
# HELP weft_component_logs_total Total number of log records emitted by components
# TYPE weft_component_logs_total counter
weft_component_logs_total{type="text"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expectedLogs), "weft_component_logs_total"))
}

func TestMetrics_WatchCacheAndHandler(t *testing.T) {
	m := observability.NewMetrics()
	c := cache.New()
	require.NoError(t, m.WatchCache("shared", c))
	assert.Error(t, m.WatchCache("shared", c), "duplicate registration")

	c.Set("k", 1)
	c.Get("k")
	c.Get("missing")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `weft_cache_entries{cache="shared"} 1`)
	assert.Contains(t, body, `weft_cache_hits_total{cache="shared"} 1`)
	assert.Contains(t, body, `weft_cache_misses_total{cache="shared"} 1`)
}

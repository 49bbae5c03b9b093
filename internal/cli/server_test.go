package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/events"
)

const greetingJSON = `{
  "name": "greeting",
  "nodes": [
    {"id": "in", "type": "TextInput", "params": {"input_value": "hello"}},
    {"id": "shout", "type": "TextOperation", "params": {"operation": "upper"}, "inputs": {"text": "in.text"}}
  ]
}`

const softFailureJSON = `{
  "name": "soft",
  "nodes": [
    {"id": "convert", "type": "MessagetoData", "params": {"message": "not a message"}}
  ]
}`

func newTestServer(t *testing.T) (*Runtime, http.Handler) {
	t.Helper()
	rt, err := NewRuntime(context.Background(), testOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt, NewHandler(rt)
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, http.MethodGet, "/info", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "weft-http", resp["app"])
	assert.NotEmpty(t, resp["version"])
}

func TestGetComponents(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, http.MethodGet, "/components", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]struct {
		Name   string            `json:"name"`
		Schema map[string]string `json:"schema"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp, "Prompt")
	assert.Contains(t, resp, "InMemoryVectorStore")
	assert.Equal(t, "TextOperation", resp["TextOperation"].Name)
	assert.NotEmpty(t, resp["TextOperation"].Schema)
}

func TestPostRun(t *testing.T) {
	rt, h := newTestServer(t)
	rr := do(t, h, http.MethodPost, "/run", "application/json", greetingJSON)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		RunID   string                    `json:"run_id"`
		Outputs map[string]domain.Message `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "HELLO", res.Outputs["shout.text"].Text)

	t.Run("Events are kept per run", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/runs/"+res.RunID+"/events", "", "")
		require.Equal(t, http.StatusOK, rr.Code)
		var history []events.Event
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
		require.NotEmpty(t, history)
		assert.Equal(t, domain.EventRunStart, history[0].Type)
		assert.Equal(t, domain.EventRunEnd, history[len(history)-1].Type)
		assert.Len(t, rt.Broker.History(res.RunID), len(history))
	})

	t.Run("Metrics count the run", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/metrics", "", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `weft_runs_total{status="ok"} 1`)
		assert.Contains(t, rr.Body.String(), "weft_cache_entries")
	})
}

func TestPostRun_YAML(t *testing.T) {
	_, h := newTestServer(t)
	body, err := os.ReadFile("testdata/greeting.yaml")
	require.NoError(t, err)

	rr := do(t, h, http.MethodPost, "/run", "application/yaml", string(body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "HELLO!")
}

func TestPostRun_Logs(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, http.MethodPost, "/run", "application/json", softFailureJSON)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res domain.RunResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Contains(t, rr.Body.String(), "Input must be a Message object")

	logs := do(t, h, http.MethodGet, "/runs/"+res.RunID+"/logs", "", "")
	require.Equal(t, http.StatusOK, logs.Code)
	assert.Contains(t, logs.Body.String(), `"component":"convert"`)

	missing := do(t, h, http.MethodGet, "/runs/unknown/logs", "", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestPostRun_Errors(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"Malformed body", `{"nodes": [`, http.StatusBadRequest, "failed to parse flow json"},
		{"Empty flow", `{"name": "empty"}`, http.StatusBadRequest, "flow has no nodes"},
		{"Unknown type", `{"nodes": [{"id": "x", "type": "Nope"}]}`, http.StatusUnprocessableEntity, "Nope"},
		{
			"Execution failure",
			`{"nodes": [{"id": "env", "type": "GetEnvVar", "params": {"env_var_name": "WEFT_CLI_TEST_UNSET_VARIABLE"}}]}`,
			http.StatusInternalServerError,
			`"component":"env"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/run", "application/json", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestPostValidate(t *testing.T) {
	_, h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/validate", "application/json", greetingJSON)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"valid": true}`, rr.Body.String())

	cycle := `{"nodes": [
	  {"id": "a", "type": "TextOperation", "inputs": {"text": "b.text"}},
	  {"id": "b", "type": "TextOperation", "inputs": {"text": "a.text"}}
	]}`
	rr = do(t, h, http.MethodPost, "/validate", "application/json", cycle)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "cycle")
}

func TestPostGraph(t *testing.T) {
	_, h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/graph", "application/json", greetingJSON)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "graph TD\n"))
	assert.NotContains(t, rr.Body.String(), "classDef")

	rr = do(t, h, http.MethodPost, "/graph?run=true", "application/json", greetingJSON)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "class shout ok;")
}

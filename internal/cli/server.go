package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/presentation/graph"
	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/flow"
	"github.com/aretw0/weft/pkg/schema"
)

// maxFlowBytes bounds request bodies carrying flow documents.
const maxFlowBytes = 4 << 20

// Server exposes a Runtime over HTTP.
type Server struct {
	rt *Runtime
}

// NewHandler creates the HTTP handler serving rt.
func NewHandler(rt *Runtime) http.Handler {
	s := &Server{rt: rt}
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", rt.Metrics.Handler())
	r.Get("/components", s.GetComponents)
	r.Post("/validate", s.PostValidate)
	r.Post("/graph", s.PostGraph)
	r.Post("/run", s.PostRun)
	r.Route("/runs/{runID}", func(r chi.Router) {
		r.Get("/events", s.GetRunEvents)
		r.Get("/logs", s.GetRunLogs)
	})
	r.Get("/events", s.SubscribeEvents)

	return r
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "weft-http",
		"version": strings.TrimSpace(weft.Version),
	})
}

// GetComponents handles the GET /components request.
func (s *Server) GetComponents(w http.ResponseWriter, r *http.Request) {
	defs, err := s.rt.Engine.Inspect()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("inspect error: %w", err))
		return
	}
	out := make(map[string]componentView, len(defs))
	for name, def := range defs {
		out[name] = componentView{Definition: def, Schema: def.Schema()}
	}
	writeJSON(w, http.StatusOK, out)
}

// componentView adds the literal input types to a definition.
type componentView struct {
	component.Definition
	Schema schema.Schema `json:"schema"`
}

// PostValidate handles the POST /validate request.
func (s *Server) PostValidate(w http.ResponseWriter, r *http.Request) {
	def, ok := s.readFlow(w, r)
	if !ok {
		return
	}
	if err := s.rt.Engine.Validate(def); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// PostGraph handles the POST /graph request. The response is a Mermaid
// diagram; ?run=true executes the flow and overlays the statuses.
func (s *Server) PostGraph(w http.ResponseWriter, r *http.Request) {
	def, ok := s.readFlow(w, r)
	if !ok {
		return
	}
	g, err := s.rt.Engine.Build(def)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	var overlay *graph.Overlay
	if r.URL.Query().Get("run") == "true" {
		run := s.rt.Engine.NewRun(g)
		if _, err := run.Execute(r.Context()); err != nil {
			s.rt.Logger.Warn("graph overlay run failed", "run_id", run.ID(), "err", err)
		}
		overlay = &graph.Overlay{Statuses: run.Statuses()}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, graph.GenerateMermaid(g, overlay)); err != nil {
		s.rt.Logger.Warn("graph write error", "err", err)
	}
}

// PostRun handles the POST /run request.
func (s *Server) PostRun(w http.ResponseWriter, r *http.Request) {
	def, ok := s.readFlow(w, r)
	if !ok {
		return
	}
	g, err := s.rt.Engine.Build(def)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	res, err := s.rt.Engine.Run(r.Context(), g)
	if err != nil {
		var execErr *domain.ComponentExecutionError
		switch {
		case errors.As(err, &execErr):
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":     err.Error(),
				"component": execErr.Component,
				"output":    execErr.Output,
			})
		case errors.Is(err, context.Canceled):
			writeError(w, http.StatusServiceUnavailable, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetRunEvents handles the GET /runs/{runID}/events request.
func (s *Server) GetRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	history := s.rt.Broker.History(runID)
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("no events for run %q", runID))
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// GetRunLogs handles the GET /runs/{runID}/logs request.
func (s *Server) GetRunLogs(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	logs := s.rt.Tracing.Logs(runID)
	if len(logs) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("no logs for run %q", runID))
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.rt.Broker.Subscribe(r.Context())

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.rt.Logger.Warn("event encode error", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

// readFlow decodes the flow document in the request body. The format follows
// the Content-Type header; JSON unless it names yaml.
func (s *Server) readFlow(w http.ResponseWriter, r *http.Request) (*flow.Definition, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFlowBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return nil, false
	}
	format := flow.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = flow.FormatYAML
	}
	def, err := flow.Parse(data, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return def, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode error", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, rt *Runtime, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(rt),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		rt.Logger.Info("server listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
			if cerr := srv.Close(); cerr != nil {
				return errors.Join(err, cerr)
			}
		}
		rt.Logger.Info("server stopped gracefully")
		return nil
	}
}

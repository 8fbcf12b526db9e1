// Package http exposes an editing session over a small JSON API with an SSE
// change stream.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/umlpad"
	"github.com/aretw0/umlpad/internal/logging"
	"github.com/aretw0/umlpad/pkg/domain"
)

// InfoProvider is implemented by render services that expose server details.
type InfoProvider interface {
	Info(ctx context.Context) (map[string]any, error)
}

// Server serves one editor.
type Server struct {
	Editor  *umlpad.Editor
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewHandler creates the HTTP handler for the editor.
func NewHandler(editor *umlpad.Editor, opts ...Option) http.Handler {
	s := &Server{Editor: editor, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Get("/events", s.SubscribeEvents)

	r.Get("/source", s.GetSource)
	r.Put("/source", s.PutSource)
	r.Post("/generate", s.Generate)
	r.Post("/refresh", s.Refresh)
	r.Post("/retry", s.Retry)
	r.Post("/clear", s.Clear)
	r.Get("/image", s.GetImage)

	r.Route("/viewport", func(r chi.Router) {
		r.Get("/", s.GetViewport)
		r.Post("/zoom", s.Zoom)
		r.Post("/pan", s.Pan)
		r.Post("/{op}", s.ViewportOp)
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.ListHistory)
		r.Post("/", s.SaveHistory)
		r.Delete("/", s.ClearHistory)
		r.Get("/{id}", s.GetHistory)
		r.Delete("/{id}", s.DeleteHistory)
		r.Post("/{id}/load", s.LoadHistory)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"availability": s.Editor.Status().Availability.String(),
	})
}

// GetInfo handles GET /info, passing through the render service details.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"app":     "umlpad-http",
		"version": strings.TrimSpace(umlpad.Version),
	}
	if p, ok := s.Editor.Service().(InfoProvider); ok {
		info, err := p.Info(r.Context())
		if err != nil {
			s.writeError(w, http.StatusBadGateway, fmt.Errorf("service info: %w", err))
			return
		}
		resp["service"] = info
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Editor.Status())
}

type sourceBody struct {
	Source string `json:"source"`
}

// GetSource handles GET /source.
func (s *Server) GetSource(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, sourceBody{Source: s.Editor.Source()})
}

// PutSource handles PUT /source. The render follows after the debounce window.
func (s *Server) PutSource(w http.ResponseWriter, r *http.Request) {
	var body sourceBody
	if !s.decode(w, r, &body) {
		return
	}
	s.Editor.Edit(body.Source)
	s.writeJSON(w, http.StatusAccepted, s.Editor.Status())
}

// Generate handles POST /generate.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	if !s.Editor.Generate() {
		s.writeJSON(w, http.StatusConflict, map[string]any{
			"accepted": false,
			"status":   s.Editor.Status(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"accepted": true,
		"status":   s.Editor.Status(),
	})
}

// Refresh handles POST /refresh, rendering the current source right away.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	outcome, issued := s.Editor.Refresh(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"issued":  issued,
		"outcome": outcome,
	})
}

// Retry handles POST /retry.
func (s *Server) Retry(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.Retry(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Editor.Status())
}

// Clear handles POST /clear.
func (s *Server) Clear(w http.ResponseWriter, r *http.Request) {
	s.Editor.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// GetImage handles GET /image.
func (s *Server) GetImage(w http.ResponseWriter, r *http.Request) {
	img := s.Editor.Image()
	if img == "" {
		s.writeError(w, http.StatusNotFound, errors.New("no image rendered"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write([]byte(img)); err != nil {
		s.logger.Error("image write failed", "error", err)
	}
}

// GetViewport handles GET /viewport.
func (s *Server) GetViewport(w http.ResponseWriter, r *http.Request) {
	s.writeViewport(w)
}

// ViewportOp handles POST /viewport/{op} for zoom-in, zoom-out and reset.
func (s *Server) ViewportOp(w http.ResponseWriter, r *http.Request) {
	v := s.Editor.Viewport()
	switch op := chi.URLParam(r, "op"); op {
	case "zoom-in":
		v.ZoomIn()
	case "zoom-out":
		v.ZoomOut()
	case "reset":
		v.Reset()
	default:
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown viewport operation %q", op))
		return
	}
	s.writeViewport(w)
}

// Zoom handles POST /viewport/zoom {"delta"} or {"wheel"}.
func (s *Server) Zoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delta *int     `json:"delta"`
		Wheel *float64 `json:"wheel"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	switch {
	case body.Delta != nil:
		s.Editor.Viewport().ZoomBy(*body.Delta)
	case body.Wheel != nil:
		s.Editor.Viewport().Wheel(*body.Wheel)
	default:
		s.writeError(w, http.StatusBadRequest, errors.New("delta or wheel is required"))
		return
	}
	s.writeViewport(w)
}

// Pan handles POST /viewport/pan {"phase": "start"|"move"|"end", "x", "y"}.
func (s *Server) Pan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phase string  `json:"phase"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	v := s.Editor.Viewport()
	p := domain.Point{X: body.X, Y: body.Y}
	switch body.Phase {
	case "start":
		v.PanStart(p)
	case "move":
		v.PanMove(p)
	case "end":
		v.PanEnd()
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown pan phase %q", body.Phase))
		return
	}
	s.writeViewport(w)
}

func (s *Server) writeViewport(w http.ResponseWriter) {
	v := s.Editor.Viewport()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":        v.State(),
		"transform":    v.Transform(),
		"panning":      v.Panning(),
		"can_zoom_in":  v.CanZoomIn(),
		"can_zoom_out": v.CanZoomOut(),
	})
}

// ListHistory handles GET /history.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Editor.History().List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// SaveHistory handles POST /history {"title"} saving the current source.
func (s *Server) SaveHistory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if r.ContentLength != 0 && !s.decode(w, r, &body) {
		return
	}
	entry, err := s.Editor.SaveHistory(r.Context(), body.Title)
	if err != nil {
		s.writeHistoryError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, entry)
}

// ClearHistory handles DELETE /history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.History().Clear(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /history/{id}.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := s.Editor.History().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeHistoryError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

// DeleteHistory handles DELETE /history/{id}.
func (s *Server) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.History().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeHistoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadHistory handles POST /history/{id}/load.
func (s *Server) LoadHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := s.Editor.LoadHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeHistoryError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"entry":  entry,
		"status": s.Editor.Status(),
	})
}

func (s *Server) writeHistoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrEmptySource):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

// SubscribeEvents handles GET /events (SSE). Each change is sent as an event
// named after its kind carrying the editor status.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	changes, err := s.Editor.Watch(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE client connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "remote", r.RemoteAddr)
			return
		case kind, ok := <-changes:
			if !ok {
				return
			}
			payload, err := json.Marshal(s.Editor.Status())
			if err != nil {
				s.logger.Error("status encode failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, payload)
			flusher.Flush()
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Package ingress exposes the rotation over HTTP.
package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hay-kot/marquee/internal/core/display"
)

// Rotation is the scheduler surface the ingress needs.
type Rotation interface {
	Submit(ctx context.Context, text, color string) (display.Receipt, error)
	Remove(id uint64)
	Snapshot() display.Snapshot
}

// Routes.
const (
	PathMessage = "/api/message"
	PathQueue   = "/api/queue"
	PathRemove  = "/api/admin/remove"
	PathHealth  = "/healthz"
)

// HeaderRequestID carries the per-request id.
const HeaderRequestID = "X-Request-Id"

// Server handles ingress requests.
type Server struct {
	rotation Rotation
	log      zerolog.Logger
}

// NewServer creates a new Server.
func NewServer(rotation Rotation, log zerolog.Logger) *Server {
	return &Server{rotation: rotation, log: log}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathMessage, s.handleSubmit)
	mux.HandleFunc("GET "+PathQueue, s.handleQueue)
	mux.HandleFunc("POST "+PathRemove, s.handleRemove)
	mux.HandleFunc("GET "+PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	return s.logRequests(mux)
}

type submitRequest struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

type removeRequest struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid body", http.StatusBadRequest)
			return
		}
	} else {
		req.Text = r.FormValue("text")
		req.Color = r.FormValue("color")
	}

	receipt, err := s.rotation.Submit(r.Context(), req.Text, req.Color)
	if err != nil {
		if errors.Is(err, display.ErrInvalidInput) {
			http.Error(w, "Invalid text", http.StatusBadRequest)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("submit failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, receipt)
}

func (s *Server) handleQueue(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, s.rotation.Snapshot())
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid id", http.StatusBadRequest)
			return
		}
	} else {
		id, err := strconv.ParseUint(strings.TrimSpace(r.FormValue("id")), 10, 64)
		if err != nil {
			http.Error(w, "Invalid id", http.StatusBadRequest)
			return
		}
		req.ID = id
	}

	s.rotation.Remove(req.ID)
	_, _ = w.Write([]byte("ok"))
}

// logRequests tags each request with an id and logs it when done.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		log := s.log.With().Str("request_id", id).Logger()
		r = r.WithContext(log.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

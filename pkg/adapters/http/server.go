package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aretw0/paddock/pkg/domain"
	"github.com/aretw0/paddock/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the pool operations over a JSON HTTP API.
//
// The API works at the canonical-member level: items cross the wire in the
// same storable form the pool keys on, so the server needs no codec and can
// front a pool of any item type.
type Server struct {
	store  ports.PoolStore
	lease  time.Duration
	logger *slog.Logger
	ops    *prometheus.CounterVec
}

// NewHandler creates an HTTP handler for the pool. lease is the checkout
// lease duration applied to every /checkout. Operation counters and the
// /metrics endpoint are registered on the given registry.
func NewHandler(store ports.PoolStore, lease time.Duration, logger *slog.Logger, registry *prometheus.Registry) http.Handler {
	server := &Server{
		store:  store,
		lease:  lease,
		logger: logger,
		ops: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "paddock_operations_total",
			Help: "Pool operations by name and outcome.",
		}, []string{"op", "outcome"}),
	}

	r := chi.NewRouter()
	r.Post("/checkout", server.Checkout)
	r.Post("/release", server.Release)
	r.Get("/items", server.ListItems)
	r.Post("/items", server.AddItem)
	r.Delete("/items/{member}", server.RemoveItem)
	r.Post("/reset", server.Reset)
	r.Get("/health", server.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}

func (s *Server) count(op, outcome string) {
	s.ops.WithLabelValues(op, outcome).Inc()
}

// Checkout handles the POST /checkout request. It leases an item and
// returns its canonical member. Responds 409 when the pool is exhausted —
// an expected condition the client is meant to back off from.
func (s *Server) Checkout(w http.ResponseWriter, r *http.Request) {
	member, err := s.store.Choose(r.Context(), s.lease)
	if err != nil {
		if errors.Is(err, domain.ErrNoItemAvailable) {
			s.count("checkout", "exhausted")
			writeError(w, http.StatusConflict, "no item available")
			return
		}
		s.count("checkout", "error")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("checkout error: %v", err))
		s.logger.Error("checkout failed", "error", err)
		return
	}

	s.count("checkout", "ok")
	writeJSON(w, http.StatusOK, CheckoutResponse{
		Member:       member,
		LeasedUntil:  time.Now().Add(s.lease),
		LeaseSeconds: s.lease.Seconds(),
	})
}

// Release handles the POST /release request, returning an item to the
// pool. An optional lock_till defers its availability.
func (s *Server) Release(w http.ResponseWriter, r *http.Request) {
	var body ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("release: invalid request body", "error", err)
		return
	}
	if body.Member == "" {
		writeError(w, http.StatusBadRequest, "member is required")
		return
	}

	var lockTill time.Time
	if body.LockTill != nil {
		lockTill = *body.LockTill
	}

	if err := s.store.Replace(r.Context(), body.Member, lockTill); err != nil {
		s.count("release", "error")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("release error: %v", err))
		s.logger.Error("release failed", "error", err)
		return
	}

	s.count("release", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// ListItems handles the GET /items request.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.Members(r.Context())
	if err != nil {
		s.count("list", "error")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list error: %v", err))
		s.logger.Error("list failed", "error", err)
		return
	}

	now := time.Now()
	items := make([]ItemView, 0, len(members))
	for _, m := range members {
		items = append(items, ItemView{
			Member:      m.Element,
			AvailableAt: m.AvailableAt,
			Available:   m.Available(now),
		})
	}

	s.count("list", "ok")
	writeJSON(w, http.StatusOK, ItemsResponse{Items: items})
}

// AddItem handles the POST /items request.
func (s *Server) AddItem(w http.ResponseWriter, r *http.Request) {
	var body AddRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("add: invalid request body", "error", err)
		return
	}
	if body.Member == "" {
		writeError(w, http.StatusBadRequest, "member is required")
		return
	}

	added, err := s.store.Add(r.Context(), body.Member)
	if err != nil {
		s.count("add", "error")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("add error: %v", err))
		s.logger.Error("add failed", "error", err)
		return
	}

	s.count("add", "ok")
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, AddResponse{Added: added})
}

// RemoveItem handles the DELETE /items/{member} request. The member is
// path-escaped by the client.
func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request) {
	member, err := url.PathUnescape(chi.URLParam(r, "member"))
	if err != nil || member == "" {
		writeError(w, http.StatusBadRequest, "invalid member")
		return
	}

	removed, err := s.store.Remove(r.Context(), member)
	if err != nil {
		s.count("remove", "error")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("remove error: %v", err))
		s.logger.Error("remove failed", "error", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not a pool member")
		return
	}

	s.count("remove", "ok")
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles the POST /reset request, rotating the entire membership.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	var body ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("reset: invalid request body", "error", err)
		return
	}

	count, err := s.store.Reset(r.Context(), body.Members, body.BatchSize, body.PreserveScores)
	if err != nil {
		s.count("reset", "error")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("reset error: %v", err))
		s.logger.Error("reset failed", "error", err)
		return
	}

	s.count("reset", "ok")
	s.logger.Info("pool rotated over http", "size", count, "preserve_scores", body.PreserveScores)
	writeJSON(w, http.StatusOK, ResetResponse{Count: count})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// -- Wire types --

type CheckoutResponse struct {
	Member       string    `json:"member"`
	LeasedUntil  time.Time `json:"leased_until"`
	LeaseSeconds float64   `json:"lease_seconds"`
}

type ReleaseRequest struct {
	Member   string     `json:"member"`
	LockTill *time.Time `json:"lock_till,omitempty"`
}

type AddRequest struct {
	Member string `json:"member"`
}

type AddResponse struct {
	Added bool `json:"added"`
}

type ItemView struct {
	Member      string    `json:"member"`
	AvailableAt time.Time `json:"available_at"`
	Available   bool      `json:"available"`
}

type ItemsResponse struct {
	Items []ItemView `json:"items"`
}

type ResetRequest struct {
	Members        []string `json:"members"`
	BatchSize      int      `json:"batch_size,omitempty"`
	PreserveScores bool     `json:"preserve_scores,omitempty"`
}

type ResetResponse struct {
	Count int64 `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// -- Helpers --

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

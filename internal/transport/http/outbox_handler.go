package http

import (
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
)

// OutboxHandler serves the operator surface for the outbox relay: live
// counts and the failed-record requeue.
type OutboxHandler struct {
	store  contracts.OutboxStore
	logger *zap.Logger
}

// NewOutboxHandler creates a new OutboxHandler.
func NewOutboxHandler(store contracts.OutboxStore, logger *zap.Logger) *OutboxHandler {
	return &OutboxHandler{store: store, logger: logger}
}

// Register mounts the handler routes on the mux.
func (h *OutboxHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/outbox/stats", h.handleStats)
	mux.HandleFunc("/api/v1/outbox/requeue", h.handleRequeue)
}

func (h *OutboxHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := h.store.Counts(r.Context())
	if err != nil {
		h.logger.Error("failed to read outbox counts", zap.Error(err))
		http.Error(w, "failed to read outbox counts", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, counts)
}

func (h *OutboxHandler) handleRequeue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requeued, err := h.store.RequeueFailed(r.Context())
	if err != nil {
		h.logger.Error("failed to requeue outbox records", zap.Error(err))
		http.Error(w, "failed to requeue outbox records", http.StatusInternalServerError)
		return
	}

	h.logger.Info("requeued failed outbox records", zap.Int64("count", requeued))
	h.writeJSON(w, map[string]int64{"requeued": requeued})
}

func (h *OutboxHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

package trades

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// Handler serves the read-only closed-trade API
type Handler struct {
	builder *Builder
	repo    *TradeRepository
	log     zerolog.Logger
}

// NewHandler creates a new trades handler. The repository may be nil when no
// ledger database is configured; the in-memory log still serves.
func NewHandler(builder *Builder, repo *TradeRepository, log zerolog.Logger) *Handler {
	return &Handler{
		builder: builder,
		repo:    repo,
		log:     log.With().Str("handler", "trades").Logger(),
	}
}

// HandleListTrades returns the most recent closed trades
func (h *Handler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if h.repo != nil {
		trades, err := h.repo.ListRecent(limit)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.writeJSON(w, trades)
		return
	}

	closed := h.builder.ClosedTrades()
	if len(closed) > limit {
		closed = closed[len(closed)-limit:]
	}
	h.writeJSON(w, closed)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

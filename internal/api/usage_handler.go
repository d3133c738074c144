package api

import (
	"net/http"
	"strconv"
	"time"

	usageservice "clubhub/internal/services/usage"
	"clubhub/pkg/logger"
)

// UsageHandler exposes the usage ledger and token-status checks
type UsageHandler struct {
	manager *usageservice.Manager
	service *usageservice.Service
	// defaultLimit is the per-user token budget applied when the caller
	// does not supply one
	defaultLimit int64
	log          *logger.Logger
}

// NewUsageHandler creates a usage API handler
func NewUsageHandler(
	manager *usageservice.Manager,
	service *usageservice.Service,
	defaultLimit int64,
	log *logger.Logger,
) *UsageHandler {
	return &UsageHandler{
		manager:      manager,
		service:      service,
		defaultLimit: defaultLimit,
		log:          log.With("handler", "usage"),
	}
}

type recordUsageRequest struct {
	UserID      string `json:"user_id"`
	TokensUsed  int    `json:"tokens_used"`
	Model       string `json:"model"`
	RequestType string `json:"request_type"`
}

type recordUsageResponse struct {
	Recorded bool `json:"recorded"`
}

// HandleStatus answers GET /v1/usage/status?user_id=&limit=
func (h *UsageHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	status := h.manager.CheckStatus(r.Context(), userID, limit)
	writeJSON(w, http.StatusOK, status)
}

// HandleRecord answers POST /v1/usage
func (h *UsageHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordUsageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	recorded := h.manager.Record(r.Context(), req.UserID, req.TokensUsed, req.Model, req.RequestType)

	// Recording is best-effort; a failed write is reported, not an error
	writeJSON(w, http.StatusOK, recordUsageResponse{Recorded: recorded})
}

// HandleModels answers GET /v1/usage/models?user_id=
func (h *UsageHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	usageByModel, err := h.service.UsageByModel(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	type modelUsage struct {
		Model        string    `json:"model"`
		TotalTokens  int64     `json:"total_tokens"`
		RequestCount int64     `json:"request_count"`
		LastUsed     time.Time `json:"last_used"`
	}

	out := make([]modelUsage, 0, len(usageByModel))
	for _, m := range usageByModel {
		out = append(out, modelUsage{
			Model:        m.Model,
			TotalTokens:  m.TotalTokens,
			RequestCount: m.RequestCount,
			LastUsed:     m.LastUsed,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

// HandleResetRateLimit answers POST /v1/usage/ratelimit/reset.
// Operator escape hatch for a caller stuck behind a stale window.
func (h *UsageHandler) HandleResetRateLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Identifier == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "identifier is required"})
		return
	}

	if err := h.manager.ResetRateLimit(r.Context(), req.Identifier); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// HandleRecent answers GET /v1/usage/recent?user_id=&limit=
func (h *UsageHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.service.ListRecent(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	type usageEntry struct {
		ID          string    `json:"id"`
		TokensUsed  int       `json:"tokens_used"`
		Model       string    `json:"model"`
		RequestType string    `json:"request_type"`
		CreatedAt   time.Time `json:"created_at"`
	}

	out := make([]usageEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, usageEntry{
			ID:          e.ID.String(),
			TokensUsed:  e.TokensUsed,
			Model:       e.Model,
			RequestType: e.RequestType,
			CreatedAt:   e.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

// HandleStats answers GET /v1/usage/stats?window=24h
func (h *UsageHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "window must be a positive duration"})
			return
		}
		window = parsed
	}

	stats, err := h.service.AggregateStats(r.Context(), window)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"window":                 window.String(),
		"active_users":           stats.ActiveUsers,
		"total_tokens":           stats.TotalTokens,
		"total_requests":         stats.TotalRequests,
		"avg_tokens_per_request": stats.AvgTokensPerRequest,
	})
}

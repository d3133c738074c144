package api

import (
	"net/http"
	"strconv"
	"time"

	"clubhub/internal/domain/catalog"
	catalogservice "clubhub/internal/services/catalog"
	"clubhub/pkg/logger"
)

// CatalogHandler exposes the mirrored model catalog
type CatalogHandler struct {
	catalog *catalogservice.Service
	sync    *catalogservice.SyncService
	log     *logger.Logger
}

// NewCatalogHandler creates a catalog API handler
func NewCatalogHandler(
	catalog *catalogservice.Service,
	sync *catalogservice.SyncService,
	log *logger.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		sync:    sync,
		log:     log.With("handler", "catalog"),
	}
}

type modelResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	ContextLength     int       `json:"context_length"`
	PricingPrompt     string    `json:"pricing_prompt"`
	PricingCompletion string    `json:"pricing_completion"`
	Modality          string    `json:"modality,omitempty"`
	Tokenizer         string    `json:"tokenizer,omitempty"`
	IsModerated       bool      `json:"is_moderated"`
	Tags              []string  `json:"tags,omitempty"`
	IsFree            bool      `json:"is_free"`
	LastUpdated       time.Time `json:"last_updated"`
}

func toModelResponse(m *catalog.Model) modelResponse {
	return modelResponse{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		ContextLength:     m.ContextLength,
		PricingPrompt:     m.PricingPrompt,
		PricingCompletion: m.PricingCompletion,
		Modality:          m.Modality,
		Tokenizer:         m.Tokenizer,
		IsModerated:       m.IsModerated,
		Tags:              m.Tags,
		IsFree:            m.IsFree,
		LastUpdated:       m.LastUpdated,
	}
}

func toModelResponses(models []*catalog.Model) []modelResponse {
	out := make([]modelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, toModelResponse(m))
	}
	return out
}

// HandleList answers GET /v1/models with optional tier=free|paid, q= and limit=
func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if q := query.Get("q"); q != "" {
		models, err := h.catalog.SearchModels(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": toModelResponses(models)})
		return
	}

	switch query.Get("tier") {
	case "", "free":
		models, err := h.catalog.GetFreeModels(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": toModelResponses(models)})

	case "paid":
		limit := 0
		if raw := query.Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		models, err := h.catalog.GetPaidModels(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": toModelResponses(models)})

	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "tier must be free or paid"})
	}
}

// HandleGet answers GET /v1/models/{id}
func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "model id is required"})
		return
	}

	model, err := h.catalog.GetModel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toModelResponse(model))
}

// HandleSync answers POST /v1/models/sync and triggers an out-of-schedule
// catalog refresh. A sync already in flight yields 409.
func (h *CatalogHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if !h.sync.TriggerManual(r.Context()) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "sync already in progress or failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

type syncLogResponse struct {
	ID            int64     `json:"id"`
	SyncType      string    `json:"sync_type"`
	ModelsFetched int       `json:"models_fetched"`
	ModelsAdded   int       `json:"models_added"`
	ModelsUpdated int       `json:"models_updated"`
	ModelsRemoved int       `json:"models_removed"`
	DurationMs    int64     `json:"duration_ms"`
	Success       bool      `json:"success"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSyncLogResponse(l *catalog.SyncLog) syncLogResponse {
	return syncLogResponse{
		ID:            l.ID,
		SyncType:      l.SyncType,
		ModelsFetched: l.ModelsFetched,
		ModelsAdded:   l.ModelsAdded,
		ModelsUpdated: l.ModelsUpdated,
		ModelsRemoved: l.ModelsRemoved,
		DurationMs:    l.DurationMs,
		Success:       l.Success,
		ErrorMessage:  l.ErrorMessage,
		CreatedAt:     l.CreatedAt,
	}
}

// HandleSyncHistory answers GET /v1/models/sync/history?limit=
func (h *CatalogHandler) HandleSyncHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	logs, err := h.sync.RecentSyncs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]syncLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toSyncLogResponse(l))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.sync.IsRunning(),
		"data":    out,
	})
}

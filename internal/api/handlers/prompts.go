package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/apperr"
	"github.com/promptforge/promptforge/internal/audit"
	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/metrics"
	"github.com/promptforge/promptforge/internal/models"
	"github.com/promptforge/promptforge/internal/prompt"
	"github.com/promptforge/promptforge/internal/queue"
	"github.com/promptforge/promptforge/internal/version"
)

type PromptHandler struct {
	svc      *prompt.Service
	versions *version.Store
	gateway  llm.Gateway
	audit    *audit.Service
	queue    *queue.Client
}

func NewPromptHandler(svc *prompt.Service, versions *version.Store, gw llm.Gateway, auditSvc *audit.Service, qc *queue.Client) *PromptHandler {
	return &PromptHandler{svc: svc, versions: versions, gateway: gw, audit: auditSvc, queue: qc}
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req prompt.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apperr.Validation("invalid request body"))
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	p, err := h.svc.Create(r.Context(), owner, req)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		Action: "prompt.create", ResourceType: "prompt", ResourceID: &p.ID,
	})
	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	owner := auth.UserIDFromContext(r.Context())
	prompts, err := h.svc.List(r.Context(), owner, limit, offset)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"prompts": prompts, "count": len(prompts)})
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, apperr.Validation("invalid prompt ID"))
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	p, err := h.svc.Get(r.Context(), id, owner)
	if err != nil {
		writeErr(w, err)
		return
	}

	versions, err := h.versions.ListVersions(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"prompt": p, "versions": versions})
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, apperr.Validation("invalid prompt ID"))
		return
	}

	var patch prompt.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErr(w, apperr.Validation("invalid request body"))
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	p, err := h.svc.Update(r.Context(), id, owner, patch)
	if err != nil {
		writeErr(w, err)
		return
	}

	if patch.Content != nil {
		if err := h.queue.EnqueuePromptStats(queue.PromptStatsPayload{PromptID: id.String()}); err != nil {
			slog.Warn("enqueue prompt stats failed", "prompt_id", id, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, apperr.Validation("invalid prompt ID"))
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	p, err := h.svc.Delete(r.Context(), id, owner)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		Action: "prompt.delete", ResourceType: "prompt", ResourceID: &p.ID,
	})
	writeJSON(w, http.StatusOK, p)
}

type restoreRequest struct {
	VersionID string `json:"versionId"`
}

// Restore copies a version snapshot back onto the draft. It changes the
// draft only; the version list is untouched.
func (h *PromptHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, apperr.Validation("invalid prompt ID"))
		return
	}

	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apperr.Validation("invalid request body"))
		return
	}
	versionID, err := uuid.Parse(req.VersionID)
	if err != nil {
		writeErr(w, apperr.Validation("invalid versionId"))
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	p, err := h.versions.RestoreVersion(r.Context(), id, versionID, owner)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		Action: "prompt.restore", ResourceType: "prompt", ResourceID: &p.ID,
		Details: map[string]interface{}{"version_id": versionID.String()},
	})
	writeJSON(w, http.StatusOK, p)
}

type runRequest struct {
	Variables map[string]string `json:"variables"`
	System    string            `json:"system,omitempty"`
}

// Run executes the current draft against its configured model and folds
// the usage into the prompt's aggregate counters.
func (h *PromptHandler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, apperr.Validation("invalid prompt ID"))
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apperr.Validation("invalid request body"))
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	p, err := h.svc.Get(r.Context(), id, owner)
	if err != nil {
		writeErr(w, err)
		return
	}

	var cfg models.ModelConfig
	if err := json.Unmarshal(p.ModelParams, &cfg); err != nil {
		writeErr(w, apperr.Store("stored model params unreadable", err))
		return
	}

	rendered, err := prompt.Render(p.Content, req.Variables)
	if err != nil {
		writeErr(w, err)
		return
	}

	msgs := []llm.Message{}
	if req.System != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: rendered})

	resp, err := h.gateway.Complete(r.Context(), llm.Request{
		Provider:         cfg.Provider,
		Model:            cfg.Name,
		Messages:         msgs,
		Temperature:      cfg.Parameters.Temperature,
		MaxTokens:        cfg.Parameters.MaxTokens,
		TopP:             cfg.Parameters.TopP,
		FrequencyPenalty: cfg.Parameters.FrequencyPenalty,
		PresencePenalty:  cfg.Parameters.PresencePenalty,
		Stop:             cfg.Parameters.Stop,
	})
	if err != nil {
		metrics.LLMRequests.WithLabelValues(cfg.Provider, "error").Inc()
		writeErr(w, apperr.Store("completion failed", err))
		return
	}
	metrics.LLMRequests.WithLabelValues(cfg.Provider, "ok").Inc()

	if err := h.svc.AddUsage(r.Context(), id, owner, resp.TotalTokens, resp.CostUSD); err != nil {
		slog.Warn("usage accounting failed", "prompt_id", id, "error", err)
	}
	if err := h.audit.RecordUsage(r.Context(), models.LLMUsageLog{
		PromptID:     &id,
		Provider:     resp.Provider,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		TotalTokens:  resp.TotalTokens,
		CostUSD:      resp.CostUSD,
		LatencyMs:    resp.LatencyMs,
	}); err != nil {
		slog.Warn("usage log failed", "prompt_id", id, "error", err)
	}

	writeJSON(w, http.StatusOK, resp)
}

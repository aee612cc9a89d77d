package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/apperr"
	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/models"
	"github.com/promptforge/promptforge/internal/prompt"
	"github.com/promptforge/promptforge/internal/queue"
	"github.com/promptforge/promptforge/internal/version"
)

type VersionHandler struct {
	store   *version.Store
	prompts *prompt.Service
	queue   *queue.Client
}

func NewVersionHandler(store *version.Store, prompts *prompt.Service, qc *queue.Client) *VersionHandler {
	return &VersionHandler{store: store, prompts: prompts, queue: qc}
}

type saveVersionRequest struct {
	PromptID    string             `json:"promptId"`
	Content     string             `json:"content"`
	ModelParams models.ModelConfig `json:"modelParams"`
}

// Save snapshots the submitted content as the prompt's next version. A
// resubmission of identical content answers 200 with a message field
// instead of a new version; the payload shape is how clients tell the
// two apart.
func (h *VersionHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apperr.Validation("invalid request body"))
		return
	}

	promptID, err := uuid.Parse(req.PromptID)
	if err != nil {
		writeErr(w, apperr.Validation("invalid promptId"))
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	if _, err := h.prompts.Get(r.Context(), promptID, owner); err != nil {
		writeErr(w, err)
		return
	}

	result, err := h.store.SaveVersion(r.Context(), promptID, req.Content, req.ModelParams)
	if err != nil {
		writeErr(w, err)
		return
	}

	if !result.Created {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "No changes detected since the last saved version",
			"version": result.Version,
		})
		return
	}

	if err := h.queue.EnqueuePromptStats(queue.PromptStatsPayload{PromptID: promptID.String()}); err != nil {
		slog.Warn("enqueue prompt stats failed", "prompt_id", promptID, "error", err)
	}

	writeJSON(w, http.StatusOK, result.Version)
}

// List returns a prompt's versions newest first. Unknown, malformed or
// foreign prompt IDs all answer an empty list; version listings never
// confirm the existence of someone else's prompt.
func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	promptID, err := uuid.Parse(r.URL.Query().Get("promptId"))
	if err != nil {
		writeJSON(w, http.StatusOK, []models.PromptVersion{})
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	if _, err := h.prompts.Get(r.Context(), promptID, owner); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			writeJSON(w, http.StatusOK, []models.PromptVersion{})
			return
		}
		writeErr(w, err)
		return
	}

	versions, err := h.store.ListVersions(r.Context(), promptID)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versions)
}

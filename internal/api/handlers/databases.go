package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/apperr"
	"github.com/promptforge/promptforge/internal/audit"
	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/queue"
	"github.com/promptforge/promptforge/internal/vectordb"
)

type DatabaseHandler struct {
	svc   *vectordb.Service
	audit *audit.Service
	queue *queue.Client
}

func NewDatabaseHandler(svc *vectordb.Service, auditSvc *audit.Service, qc *queue.Client) *DatabaseHandler {
	return &DatabaseHandler{svc: svc, audit: auditSvc, queue: qc}
}

// metadataKeys are request fields that describe the registration rather
// than the connection; everything else in the body is treated as a
// connection credential and encrypted.
var metadataKeys = map[string]bool{
	"type":           true,
	"collectionName": true,
	"description":    true,
}

// Create registers a vector store. The flat request body mixes
// registration metadata with provider-specific connection fields; the
// connection fields are separated out, encrypted, and never stored or
// echoed in plaintext.
func (h *DatabaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	// Numbers stay as json.Number through decode and encryption so
	// numeric credential fields (large account or project IDs) are
	// stored exactly as sent.
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		writeErr(w, apperr.Validation("invalid request body"))
		return
	}

	dbType, _ := body["type"].(string)
	collection, _ := body["collectionName"].(string)
	description, _ := body["description"].(string)

	config := make(map[string]interface{}, len(body))
	for k, v := range body {
		if !metadataKeys[k] {
			config[k] = v
		}
	}

	owner := auth.UserIDFromContext(r.Context())
	d, err := h.svc.Create(r.Context(), owner, vectordb.CreateRequest{
		Type:           dbType,
		CollectionName: collection,
		Description:    description,
		Config:         config,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.queue.EnqueueVectorDBProbe(queue.VectorDBProbePayload{
		DatabaseID: d.ID.String(),
		OwnerID:    owner.String(),
	}); err != nil {
		slog.Warn("enqueue probe failed", "database_id", d.ID, "error", err)
	}

	h.audit.Record(r.Context(), audit.Entry{
		Action: "database.create", ResourceType: "vector_database", ResourceID: &d.ID,
		Details: map[string]interface{}{"type": dbType},
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "database": d})
}

func (h *DatabaseHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := auth.UserIDFromContext(r.Context())
	dbs, err := h.svc.List(r.Context(), owner)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"databases": dbs, "count": len(dbs)})
}

func (h *DatabaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeErr(w, apperr.Validation("invalid database ID"))
		return
	}

	owner := auth.UserIDFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), id, owner); err != nil {
		writeErr(w, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		Action: "database.delete", ResourceType: "vector_database", ResourceID: &id,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

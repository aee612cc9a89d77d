package handlers

import (
	"net/http"

	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/models"
)

type CatalogHandler struct {
	gateway llm.Gateway
}

func NewCatalogHandler(gw llm.Gateway) *CatalogHandler {
	return &CatalogHandler{gateway: gw}
}

type providerInfo struct {
	Provider   string   `json:"provider"`
	Models     []string `json:"models"`
	Configured bool     `json:"configured"`
}

// Models returns the provider/model catalog that model configs are
// validated against, flagging which providers have credentials loaded.
func (h *CatalogHandler) Models(w http.ResponseWriter, r *http.Request) {
	configured := make(map[string]bool)
	for _, name := range h.gateway.Configured() {
		configured[name] = true
	}

	out := []providerInfo{}
	for _, p := range models.Providers() {
		out = append(out, providerInfo{
			Provider:   p,
			Models:     models.ModelsFor(p),
			Configured: configured[p],
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": out})
}

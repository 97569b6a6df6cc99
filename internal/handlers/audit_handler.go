package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
	logger       zerolog.Logger
}

func NewAuditHandler(auditService *services.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// Recent lists the newest recorded mutations, 50 per page.
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	const perPage = 50
	page := queryInt(r, "page", 1)

	records, err := h.auditService.Recent(r.Context(), r.URL.Query().Get("resource"), perPage, (page-1)*perPage)
	if err != nil {
		logFor(r, h.logger).Error().Err(err).Msg("Failed to read audit trail")
		respondWithError(w, http.StatusInternalServerError, "audit_unavailable", "The audit trail could not be read")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"enabled": h.auditService.Enabled(),
		"page":    page,
		"records": records,
	})
}

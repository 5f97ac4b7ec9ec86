package admin

import (
	"net/http"
)

// MaintenanceRoutes handles routing for /admin/maintenance/* paths.
func MaintenanceRoutes(h *Handler, w http.ResponseWriter, r *http.Request, parts []string) {
	// POST /admin/maintenance/reconcile
	if r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "reconcile" {
		h.handleReconcile(w, r)
		return
	}

	http.NotFound(w, r)
}

// handleReconcile runs a reconciliation pass on demand and returns its
// summary. The pass itself never fails; skipped entities show up in the
// summary counts.
func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	summary := h.Reconciler.Run(r.Context())
	h.writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Summary any    `json:"summary"`
	}{
		Success: true,
		Message: h.I18n.Sprintf(r.Header.Get("Accept-Language"), "reconciliation pass completed"),
		Summary: summary,
	})
}

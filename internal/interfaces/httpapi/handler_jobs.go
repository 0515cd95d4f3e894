package httpapi

import "net/http"

// ProcessIntegrations drains due integration tasks on demand; the scheduler
// calls the same use case on an interval.
func (h *Handler) ProcessIntegrations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ProcessIntegrations")
	defer span.End()

	report, err := h.integrationService.ProcessDue(ctx)
	if err != nil {
		h.failed(ctx, w, "process integrations failed", err)
		return
	}

	h.logger.InfoContext(ctx, "integration tasks processed",
		"claimed", report.Claimed,
		"done", report.Done,
		"retrying", report.Retrying,
		"abandoned", report.Abandoned,
		"skipped", report.Skipped,
	)
	writeSuccess(ctx, w, http.StatusOK, report)
}

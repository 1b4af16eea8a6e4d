package api

import (
	"context"
	"net/http"

	"github.com/taskdeck/taskdeck-api/internal/api/shared"
)

// SweepRunner runs one maintenance sweep on demand. Satisfied by
// *maintenance.Job.
type SweepRunner interface {
	RunOnce(ctx context.Context) error
}

// MaintenanceHandler exposes the manual maintenance trigger. Admin only.
type MaintenanceHandler struct {
	runner SweepRunner
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(runner SweepRunner) *MaintenanceHandler {
	return &MaintenanceHandler{runner: runner}
}

// Trigger handles POST /api/maintenance, running a full sweep
// synchronously.
func (h *MaintenanceHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.RunOnce(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Maintenance sweep failed")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MaintenanceResponse{Status: "completed"})
}

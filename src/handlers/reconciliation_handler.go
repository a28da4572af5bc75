// backend/src/handlers/reconciliation_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/optionvisor/backend/src/database"
	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/model"
	"github.com/username/optionvisor/backend/src/utils"
)

// ReconciliationHandler serves the trade journal of past engine runs.
type ReconciliationHandler struct{}

func NewReconciliationHandler() *ReconciliationHandler {
	return &ReconciliationHandler{}
}

func (h *ReconciliationHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := model.ListReconciliationRuns(database.DB, limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list reconciliation runs", "error", err)
		utils.SendJSONError(w, "Failed to list reconciliation runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []model.ReconciliationRun{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

func (h *ReconciliationHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, records, err := model.GetReconciliationRun(database.DB, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Reconciliation run not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to load reconciliation run", "runID", runID, "error", err)
		utils.SendJSONError(w, "Failed to load reconciliation run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run":    run,
		"trades": records,
	})
}

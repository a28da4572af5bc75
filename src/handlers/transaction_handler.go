// backend/src/handlers/transaction_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/services"
	"github.com/username/optionvisor/backend/src/utils"
)

type TransactionHandler struct {
	transactionService services.TransactionService
}

func NewTransactionHandler(transactionService services.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// HandleGetOptionTransactions serves the reconciled option trade history.
// Query parameters: start_date, end_date (required, YYYY-MM-DD), ticker,
// contract_type (PUT|CALL|ALL, default ALL), realized_only (default true).
func (h *TransactionHandler) HandleGetOptionTransactions(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	query := services.OptionTransactionQuery{
		StartDate:         r.URL.Query().Get("start_date"),
		EndDate:           r.URL.Query().Get("end_date"),
		Ticker:            r.URL.Query().Get("ticker"),
		ContractType:      r.URL.Query().Get("contract_type"),
		RealizedGainsOnly: r.URL.Query().Get("realized_only") != "false",
	}

	records, err := h.transactionService.GetOptionTransactions(query)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) || errors.Is(err, services.ErrInvalidContractType) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctxLogger.Error("Option transaction reconciliation failed", "error", err)
		utils.SendJSONError(w, "Failed to reconcile option transactions", http.StatusInternalServerError)
		return
	}

	var totalAmount float64
	for _, rec := range records {
		totalAmount += rec.TotalAmount
	}

	response := map[string]interface{}{
		"transactions": records,
		"count":        len(records),
		"total_amount": utils.RoundFloat(totalAmount, 2),
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	currentETag, etagErr := utils.GenerateETag(response)
	if etagErr != nil {
		ctxLogger.Error("Failed to generate ETag for option transactions", "error", etagErr)
	}
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleGetTransactionHistory serves the raw account activity for a window.
func (h *TransactionHandler) HandleGetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	transactions, err := h.transactionService.GetTransactionHistory(startDate, endDate)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctxLogger.Error("Transaction history fetch failed", "error", err)
		utils.SendJSONError(w, "Failed to fetch transaction history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

// backend/src/handlers/market_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/services"
	"github.com/username/optionvisor/backend/src/utils"
)

type MarketHandler struct {
	quoteProvider services.QuoteProvider
	chainService  services.OptionChainService
}

func NewMarketHandler(quoteProvider services.QuoteProvider, chainService services.OptionChainService) *MarketHandler {
	return &MarketHandler{
		quoteProvider: quoteProvider,
		chainService:  chainService,
	}
}

// HandleGetQuote serves the current price for one symbol.
func (h *MarketHandler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		utils.SendJSONError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	price, err := h.quoteProvider.GetTickerPrice(symbol)
	if err != nil {
		logger.FromContext(r.Context()).Error("Quote fetch failed", "symbol", symbol, "error", err)
		utils.SendJSONError(w, "Failed to fetch quote", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"symbol": symbol,
		"price":  utils.RoundFloat(price, 2),
	})
}

// HandleGetHighestReturnPut screens the put chain of one underlying for the
// best annualized premium return at a strike. Query parameters: strike
// (required), start_date, end_date (required, YYYY-MM-DD), use_mid_price
// (default true).
func (h *MarketHandler) HandleGetHighestReturnPut(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		utils.SendJSONError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	strike, err := strconv.ParseFloat(r.URL.Query().Get("strike"), 64)
	if err != nil || strike <= 0 {
		utils.SendJSONError(w, "strike must be a positive number", http.StatusBadRequest)
		return
	}
	useMidPrice := r.URL.Query().Get("use_mid_price") != "false"

	result, err := h.chainService.HighestReturnPut(symbol, strike,
		r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"), useMidPrice)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDateRange):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrNoEligiblePut):
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		default:
			logger.FromContext(r.Context()).Error("Chain screen failed", "symbol", symbol, "error", err)
			utils.SendJSONError(w, "Failed to screen option chain", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

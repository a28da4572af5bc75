// backend/src/services/interfaces.go
package services

import (
	"errors"

	"github.com/username/optionvisor/backend/src/models"
)

// Define common service errors
var (
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInvalidContractType = errors.New("contract type must be PUT, CALL or ALL")
	ErrNoEligiblePut       = errors.New("no eligible put found for strike")
)

// OptionTransactionQuery carries the caller's reconciliation request.
// Dates are YYYY-MM-DD strings; an empty Ticker matches all underlyings.
type OptionTransactionQuery struct {
	StartDate         string
	EndDate           string
	Ticker            string
	ContractType      string // "PUT", "CALL" or "ALL"
	RealizedGainsOnly bool
}

// TransactionDataProvider is the brokerage feed the engine reconciles against.
// Implementations return every account transaction whose trade date falls in
// [startDate, endDate]; an empty window yields an empty slice, not an error.
type TransactionDataProvider interface {
	FetchTransactions(startDate, endDate string) ([]models.Transaction, error)
}

// QuoteProvider returns current market prices for symbols. Not consumed by the
// matching engine itself; only by peripheral price display.
type QuoteProvider interface {
	GetTickerPrice(symbol string) (float64, error)
}

// OptionChainProvider fetches the option chain for an underlying over an
// expiration window.
type OptionChainProvider interface {
	GetOptionChain(symbol, fromDate, toDate string, strikeCount int, contractType string) (*models.OptionChain, error)
}

// OptionChainService screens option chains for income candidates.
type OptionChainService interface {
	HighestReturnPut(symbol string, strike float64, fromDate, toDate string, useMidPrice bool) (*models.PutReturn, error)
}

// TransactionService defines the interface for the option trade-matching and
// realized-gain reconciliation engine.
type TransactionService interface {
	GetOptionTransactions(query OptionTransactionQuery) ([]models.OptionTradeRecord, error)
	GetTransactionHistory(startDate, endDate string) ([]models.Transaction, error)
	InvalidateCache()
}

// backend/src/services/transaction_service.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/optionvisor/backend/src/database"
	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/model"
	"github.com/username/optionvisor/backend/src/models"
	"github.com/username/optionvisor/backend/src/processors"
	"github.com/username/optionvisor/backend/src/utils"
)

const (
	ckOptionTransactions   = "res_option_txs_%s_%s_%s_%s_%t"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// RealizedFilterPre drops assignment closing lots before matching so a rolled
// position does not consume a FIFO slot that should remain open.
// RealizedFilterPost matches everything first and drops assignment matches
// from the result. Which policy is correct is a product decision, not a data
// property, so both are kept selectable.
const (
	RealizedFilterPre  = "pre"
	RealizedFilterPost = "post"
)

// ReconciliationPolicy groups the tunable constants of the engine.
type ReconciliationPolicy struct {
	CommissionPerShare  float64
	WindowLookbackDays  int
	WindowLookaheadDays int
	RealizedFilterMode  string
}

type transactionServiceImpl struct {
	provider    TransactionDataProvider
	normalizer  processors.LegNormalizer
	combiner    processors.LotCombiner
	classifier  processors.TradeClassifier
	matcher     processors.OptionMatcher
	policy      ReconciliationPolicy
	reportCache *cache.Cache
}

// NewTransactionService wires the reconciliation pipeline. The data provider
// is injected so callers (and tests) control where transactions come from.
func NewTransactionService(
	provider TransactionDataProvider,
	normalizer processors.LegNormalizer,
	combiner processors.LotCombiner,
	classifier processors.TradeClassifier,
	matcher processors.OptionMatcher,
	policy ReconciliationPolicy,
	reportCache *cache.Cache,
) TransactionService {
	return &transactionServiceImpl{
		provider:    provider,
		normalizer:  normalizer,
		combiner:    combiner,
		classifier:  classifier,
		matcher:     matcher,
		policy:      policy,
		reportCache: reportCache,
	}
}

// GetOptionTransactions reconciles option trades for the requested window.
// The fetch window is expanded to capture positions opened before the window
// that close inside it, and trades recorded shortly after expiration; results
// are re-filtered to the caller's original window before totals are computed.
func (s *transactionServiceImpl) GetOptionTransactions(query OptionTransactionQuery) ([]models.OptionTradeRecord, error) {
	if err := validateQuery(&query); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf(ckOptionTransactions,
		query.StartDate, query.EndDate, query.Ticker, query.ContractType, query.RealizedGainsOnly)
	if s.reportCache != nil {
		if cached, found := s.reportCache.Get(cacheKey); found {
			return cached.([]models.OptionTradeRecord), nil
		}
	}

	expandedStart := utils.ShiftDate(query.StartDate, -s.policy.WindowLookbackDays)
	expandedEnd := utils.ShiftDate(query.EndDate, s.policy.WindowLookaheadDays)

	transactions, err := s.provider.FetchTransactions(expandedStart, expandedEnd)
	if err != nil {
		// An empty brokerage statement is a valid state; upstream failure is
		// reported the same way so the dashboard degrades to "no data".
		logger.L.Error("Failed to fetch transactions from broker, returning empty result",
			"start", expandedStart, "end", expandedEnd, "error", err)
		return []models.OptionTradeRecord{}, nil
	}

	legs := s.normalizer.Extract(transactions, query.Ticker, query.ContractType)
	if query.RealizedGainsOnly && s.policy.RealizedFilterMode == RealizedFilterPre {
		legs = s.dropAssignmentClosings(legs)
	}

	lots := s.combiner.Combine(legs)
	matched, unmatched := s.matcher.Match(lots)

	records := s.buildRecords(matched, unmatched, query.RealizedGainsOnly)
	records = filterToWindow(records, query.StartDate, query.EndDate)

	sort.SliceStable(records, func(i, j int) bool {
		return sortDate(records[i]) < sortDate(records[j])
	})

	s.journalRun(query, records)

	if s.reportCache != nil {
		s.reportCache.Set(cacheKey, records, DefaultCacheExpiration)
	}
	return records, nil
}

// GetTransactionHistory returns the raw account activity for a window,
// unfiltered by instrument type.
func (s *transactionServiceImpl) GetTransactionHistory(startDate, endDate string) ([]models.Transaction, error) {
	if utils.ParseDate(startDate).IsZero() || utils.ParseDate(endDate).IsZero() {
		return nil, ErrInvalidDateRange
	}
	transactions, err := s.provider.FetchTransactions(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("fetching transaction history: %w", err)
	}
	return transactions, nil
}

func (s *transactionServiceImpl) InvalidateCache() {
	if s.reportCache != nil {
		s.reportCache.Flush()
	}
}

// dropAssignmentClosings removes closing legs classified as assignments before
// matching begins, so the matching queues never see them.
func (s *transactionServiceImpl) dropAssignmentClosings(legs []models.OptionLeg) []models.OptionLeg {
	filtered := legs[:0:0]
	for _, leg := range legs {
		if leg.PositionEffect == "CLOSING" && s.classifier.Classify(leg) == models.ClassificationAssignment {
			logger.L.Debug("Dropping assignment closing leg before matching",
				"symbol", leg.Symbol, "date", leg.TradeDate)
			continue
		}
		filtered = append(filtered, leg)
	}
	return filtered
}

// buildRecords maps matcher output to caller-facing records. The sign of the
// dollar total flips with the quantity: closing a short position for a gain
// shows as a negative price delta on a negative quantity.
func (s *transactionServiceImpl) buildRecords(matched []models.MatchedTrade, unmatched []models.UnmatchedLeg, realizedOnly bool) []models.OptionTradeRecord {
	records := make([]models.OptionTradeRecord, 0, len(matched)+len(unmatched))

	for _, mt := range matched {
		if realizedOnly &&
			mt.Classification != models.ClassificationClosed &&
			mt.Classification != models.ClassificationExpiration {
			continue
		}
		totalAmount := (mt.PriceDifference - s.policy.CommissionPerShare) *
			-mt.Quantity * models.OptionContractMultiplier
		records = append(records, models.OptionTradeRecord{
			Date:             mt.OpenDate,
			CloseDate:        mt.CloseDate,
			UnderlyingSymbol: mt.Key.UnderlyingSymbol,
			ExpirationDate:   mt.Key.ExpirationDate,
			StrikePrice:      mt.Key.StrikePrice,
			Symbol:           mt.Symbol,
			Price:            mt.PriceDifference,
			Amount:           mt.Quantity,
			TotalAmount:      utils.RoundFloat(totalAmount, 2),
			OptionType:       mt.Key.OptionType,
			Type:             mt.Classification,
		})
	}

	if realizedOnly {
		return records
	}

	for _, ul := range unmatched {
		record := models.OptionTradeRecord{
			Date:             ul.Lot.TradeDate,
			UnderlyingSymbol: ul.Lot.UnderlyingSymbol,
			ExpirationDate:   ul.Lot.ExpirationDate,
			StrikePrice:      ul.Lot.StrikePrice,
			Symbol:           ul.Lot.Symbol,
			Price:            ul.Lot.Price,
			Amount:           ul.Lot.Quantity,
			OptionType:       ul.Lot.OptionType,
			Type:             ul.Classification,
		}
		if ul.Classification != models.ClassificationOpening {
			record.CloseDate = utils.MinCloseDate(ul.Lot.TradeDate, ul.Lot.ExpirationDate)
		}
		records = append(records, record)
	}
	return records
}

// sortDate is the ordering key: close date, falling back to the contract
// expiration for still-open legs. Expirations from the decoder are two-digit
// years, so normalize before comparing lexicographically.
func sortDate(r models.OptionTradeRecord) string {
	if r.CloseDate != "" {
		return r.CloseDate
	}
	if t := utils.ParseShortDate(r.ExpirationDate); !t.IsZero() {
		return t.Format(utils.DefaultDateFormat)
	}
	return r.Date
}

// filterToWindow keeps closed trades whose close date falls inside the
// caller's original window; trades pulled in only by the expansion must not
// surface. Still-open positions have no close date and are kept by their
// opening trade date instead, so a position opened inside the window stays
// visible even when its contract expires after the window ends.
func filterToWindow(records []models.OptionTradeRecord, startDate, endDate string) []models.OptionTradeRecord {
	filtered := records[:0:0]
	for _, r := range records {
		d := r.CloseDate
		if d == "" {
			d = r.Date
		}
		if d >= startDate && d <= endDate {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func validateQuery(query *OptionTransactionQuery) error {
	start := utils.ParseDate(query.StartDate)
	end := utils.ParseDate(query.EndDate)
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return fmt.Errorf("%w: start=%q end=%q", ErrInvalidDateRange, query.StartDate, query.EndDate)
	}
	switch query.ContractType {
	case "":
		query.ContractType = processors.ContractTypeAll
	case "PUT", "CALL", processors.ContractTypeAll:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidContractType, query.ContractType)
	}
	return nil
}

// journalRun records the reconciliation in the trade journal for auditing.
// Journal failures are logged, never surfaced: the broker remains the system
// of record and the response is already computed.
func (s *transactionServiceImpl) journalRun(query OptionTransactionQuery, records []models.OptionTradeRecord) {
	if database.DB == nil {
		return
	}
	var total float64
	for _, r := range records {
		total += r.TotalAmount
	}
	run := model.ReconciliationRun{
		StartDate:         query.StartDate,
		EndDate:           query.EndDate,
		Ticker:            query.Ticker,
		ContractType:      query.ContractType,
		RealizedGainsOnly: query.RealizedGainsOnly,
		FilterMode:        s.policy.RealizedFilterMode,
		TradeCount:        len(records),
		TotalAmount:       utils.RoundFloat(total, 2),
	}
	if err := model.SaveReconciliationRun(database.DB, &run, records); err != nil {
		logger.L.Error("Failed to journal reconciliation run", "error", err)
	}
}

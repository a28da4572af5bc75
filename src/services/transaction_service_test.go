package services

import (
	"errors"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/optionvisor/backend/src/models"
	"github.com/username/optionvisor/backend/src/processors"
)

type fakeProvider struct {
	txs       []models.Transaction
	err       error
	calls     int
	lastStart string
	lastEnd   string
}

func (f *fakeProvider) FetchTransactions(startDate, endDate string) ([]models.Transaction, error) {
	f.calls++
	f.lastStart = startDate
	f.lastEnd = endDate
	if f.err != nil {
		return nil, f.err
	}
	return f.txs, nil
}

func testPolicy(mode string) ReconciliationPolicy {
	return ReconciliationPolicy{
		CommissionPerShare:  0.0065,
		WindowLookbackDays:  30,
		WindowLookaheadDays: 5,
		RealizedFilterMode:  mode,
	}
}

func newTestService(provider TransactionDataProvider, policy ReconciliationPolicy, reportCache *cache.Cache) TransactionService {
	classifier := processors.NewTradeClassifier("Expiration", "Assignment")
	return NewTransactionService(
		provider,
		processors.NewLegNormalizer(),
		processors.NewLotCombiner(),
		classifier,
		processors.NewOptionMatcher(classifier),
		policy,
		reportCache,
	)
}

func putTx(txType, tradeDate, description string, qty, price float64, effect string) models.Transaction {
	return putTxFor("AAPL  230915P00150000", txType, tradeDate, description, qty, price, effect)
}

func putTxFor(symbol, txType, tradeDate, description string, qty, price float64, effect string) models.Transaction {
	return models.Transaction{
		Type:        txType,
		TradeDate:   tradeDate,
		Description: description,
		TransferItems: []models.TransferItem{{
			Instrument: &models.Instrument{
				AssetType:        "OPTION",
				Symbol:           symbol,
				PutCall:          "PUT",
				UnderlyingSymbol: "AAPL",
			},
			Amount:         qty,
			Price:          price,
			PositionEffect: effect,
		}},
	}
}

func TestGetOptionTransactionsClosedTrade(t *testing.T) {
	provider := &fakeProvider{txs: []models.Transaction{
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.50, "OPENING"),
		putTx("TRADE", "2023-08-20T13:30:00Z", "Bought to close", 1, 1.00, "CLOSING"),
	}}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	records, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-08-31",
		RealizedGainsOnly: true,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "2023-08-01", r.Date)
	assert.Equal(t, "2023-08-20", r.CloseDate)
	assert.Equal(t, "AAPL", r.UnderlyingSymbol)
	assert.Equal(t, models.ClassificationClosed, r.Type)
	assert.InDelta(t, 1.50, r.Price, 1e-9)
	assert.Equal(t, -1.0, r.Amount)
	assert.InDelta(t, 149.35, r.TotalAmount, 1e-9)
}

func TestGetOptionTransactionsExpiration(t *testing.T) {
	provider := &fakeProvider{txs: []models.Transaction{
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.50, "OPENING"),
		putTx("RECEIVE_AND_DELIVER", "2023-09-16T09:00:00Z", "Removal due to Option Expiration", 1, 0, "CLOSING"),
	}}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	records, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-09-30",
		RealizedGainsOnly: true,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, models.ClassificationExpiration, r.Type)
	// Entire premium is kept; the close date never extends past expiration.
	assert.InDelta(t, 2.50, r.Price, 1e-9)
	assert.Equal(t, "2023-09-15", r.CloseDate)
	assert.InDelta(t, 249.35, r.TotalAmount, 1e-9)
}

func TestGetOptionTransactionsAssignmentFilterModes(t *testing.T) {
	// Two short opens on different days, an assignment removing one contract,
	// then a regular trade closing the other. Dropping the assignment before
	// matching pairs the trade close with the oldest open; dropping after
	// matching lets the assignment consume that FIFO slot first.
	txs := []models.Transaction{
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.50, "OPENING"),
		putTx("TRADE", "2023-08-02T13:30:00Z", "Sold to open", -1, 3.00, "OPENING"),
		putTx("RECEIVE_AND_DELIVER", "2023-09-05T09:00:00Z", "Removal due to Assignment", 1, 0, "CLOSING"),
		putTx("TRADE", "2023-09-08T13:30:00Z", "Bought to close", 1, 1.00, "CLOSING"),
	}
	query := OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-09-30",
		RealizedGainsOnly: true,
	}

	pre := newTestService(&fakeProvider{txs: txs}, testPolicy(RealizedFilterPre), nil)
	preRecords, err := pre.GetOptionTransactions(query)
	require.NoError(t, err)
	require.Len(t, preRecords, 1)
	assert.Equal(t, "2023-08-01", preRecords[0].Date)
	assert.Equal(t, models.ClassificationClosed, preRecords[0].Type)
	assert.InDelta(t, 1.50, preRecords[0].Price, 1e-9)
	assert.InDelta(t, 149.35, preRecords[0].TotalAmount, 1e-9)

	post := newTestService(&fakeProvider{txs: txs}, testPolicy(RealizedFilterPost), nil)
	postRecords, err := post.GetOptionTransactions(query)
	require.NoError(t, err)
	require.Len(t, postRecords, 1)
	assert.Equal(t, "2023-08-02", postRecords[0].Date)
	assert.Equal(t, models.ClassificationClosed, postRecords[0].Type)
	assert.InDelta(t, 2.00, postRecords[0].Price, 1e-9)
	assert.InDelta(t, 199.35, postRecords[0].TotalAmount, 1e-9)
}

func TestGetOptionTransactionsFIFOAcrossDays(t *testing.T) {
	// Opens on different days arrive out of order; the close must consume the
	// oldest open at its own fill price, and the remaining open must keep its
	// unblended price and date.
	provider := &fakeProvider{txs: []models.Transaction{
		putTx("TRADE", "2023-08-05T13:30:00Z", "Sold to open", -1, 3.00, "OPENING"),
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.00, "OPENING"),
		putTx("TRADE", "2023-08-20T13:30:00Z", "Bought to close", 1, 1.00, "CLOSING"),
	}}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	records, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-08-31",
		RealizedGainsOnly: false,
	})

	require.NoError(t, err)
	require.Len(t, records, 2)

	// Still-open legs sort on their contract expiration, after the close.
	open := records[1]
	assert.Equal(t, models.ClassificationOpening, open.Type)
	assert.Equal(t, "2023-08-05", open.Date)
	assert.InDelta(t, 3.00, open.Price, 1e-9)

	closed := records[0]
	assert.Equal(t, models.ClassificationClosed, closed.Type)
	assert.Equal(t, "2023-08-01", closed.Date)
	assert.Equal(t, "2023-08-20", closed.CloseDate)
	assert.InDelta(t, 1.00, closed.Price, 1e-9)
	assert.InDelta(t, 99.35, closed.TotalAmount, 1e-9)
}

func TestGetOptionTransactionsSurfacesOpenPastWindowEnd(t *testing.T) {
	// A position opened inside the window on a contract expiring long after
	// the window ends must still be reported as open.
	provider := &fakeProvider{txs: []models.Transaction{
		putTxFor("AAPL  240621P00150000", "TRADE", "2023-08-10T13:30:00Z", "Sold to open", -1, 4.00, "OPENING"),
	}}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	records, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-08-31",
		RealizedGainsOnly: false,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ClassificationOpening, records[0].Type)
	assert.Equal(t, "2023-08-10", records[0].Date)
	assert.Equal(t, "24-06-21", records[0].ExpirationDate)
	assert.Empty(t, records[0].CloseDate)
}

func TestGetOptionTransactionsTickerFilter(t *testing.T) {
	provider := &fakeProvider{txs: []models.Transaction{
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.50, "OPENING"),
		putTx("TRADE", "2023-08-20T13:30:00Z", "Bought to close", 1, 1.00, "CLOSING"),
	}}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	records, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-08-31",
		Ticker:            "MSFT",
		RealizedGainsOnly: true,
	})

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetOptionTransactionsWindowFilter(t *testing.T) {
	// The close falls inside the expanded fetch window but before the caller's
	// start date, so it must not surface.
	provider := &fakeProvider{txs: []models.Transaction{
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.50, "OPENING"),
		putTx("TRADE", "2023-08-20T13:30:00Z", "Bought to close", 1, 1.00, "CLOSING"),
	}}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	records, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:         "2023-09-01",
		EndDate:           "2023-09-30",
		RealizedGainsOnly: true,
	})

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "2023-08-02", provider.lastStart)
	assert.Equal(t, "2023-10-05", provider.lastEnd)
}

func TestGetOptionTransactionsProviderErrorDegradesToEmpty(t *testing.T) {
	provider := &fakeProvider{err: errors.New("broker unavailable")}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	records, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-08-31",
		RealizedGainsOnly: true,
	})

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetOptionTransactionsIncludesOpenPositions(t *testing.T) {
	provider := &fakeProvider{txs: []models.Transaction{
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.50, "OPENING"),
	}}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	records, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-09-30",
		RealizedGainsOnly: false,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ClassificationOpening, records[0].Type)
	assert.Empty(t, records[0].CloseDate)
	assert.Equal(t, 0.0, records[0].TotalAmount)
}

func TestGetOptionTransactionsCaching(t *testing.T) {
	provider := &fakeProvider{txs: []models.Transaction{
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.50, "OPENING"),
		putTx("TRADE", "2023-08-20T13:30:00Z", "Bought to close", 1, 1.00, "CLOSING"),
	}}
	reportCache := cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	service := newTestService(provider, testPolicy(RealizedFilterPre), reportCache)
	query := OptionTransactionQuery{
		StartDate:         "2023-08-01",
		EndDate:           "2023-08-31",
		RealizedGainsOnly: true,
	}

	first, err := service.GetOptionTransactions(query)
	require.NoError(t, err)
	second, err := service.GetOptionTransactions(query)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, first, second)

	service.InvalidateCache()
	_, err = service.GetOptionTransactions(query)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestGetOptionTransactionsQueryValidation(t *testing.T) {
	service := newTestService(&fakeProvider{}, testPolicy(RealizedFilterPre), nil)

	_, err := service.GetOptionTransactions(OptionTransactionQuery{
		StartDate: "not-a-date",
		EndDate:   "2023-08-31",
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = service.GetOptionTransactions(OptionTransactionQuery{
		StartDate: "2023-08-31",
		EndDate:   "2023-08-01",
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = service.GetOptionTransactions(OptionTransactionQuery{
		StartDate:    "2023-08-01",
		EndDate:      "2023-08-31",
		ContractType: "FUTURE",
	})
	assert.ErrorIs(t, err, ErrInvalidContractType)
}

func TestGetTransactionHistory(t *testing.T) {
	provider := &fakeProvider{txs: []models.Transaction{
		putTx("TRADE", "2023-08-01T13:30:00Z", "Sold to open", -1, 2.50, "OPENING"),
	}}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	txs, err := service.GetTransactionHistory("2023-08-01", "2023-08-31")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, "2023-08-01", provider.lastStart)

	_, err = service.GetTransactionHistory("bad", "2023-08-31")
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestGetTransactionHistoryPropagatesProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("broker unavailable")}
	service := newTestService(provider, testPolicy(RealizedFilterPre), nil)

	_, err := service.GetTransactionHistory("2023-08-01", "2023-08-31")
	assert.Error(t, err)
}

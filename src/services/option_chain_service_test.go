package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/optionvisor/backend/src/models"
)

type fakeChainProvider struct {
	chain            *models.OptionChain
	err              error
	lastContractType string
}

func (f *fakeChainProvider) GetOptionChain(symbol, fromDate, toDate string, strikeCount int, contractType string) (*models.OptionChain, error) {
	f.lastContractType = contractType
	if f.err != nil {
		return nil, f.err
	}
	return f.chain, nil
}

func putChainEntry(bid, ask, mark float64, days int) models.ChainOption {
	return models.ChainOption{Bid: bid, Ask: ask, Mark: mark, DaysToExpiration: days}
}

func TestHighestReturnPutPicksBestAnnualized(t *testing.T) {
	provider := &fakeChainProvider{chain: &models.OptionChain{
		Symbol: "AAPL",
		PutExpDateMap: map[string]map[string][]models.ChainOption{
			"2023-09-15:30": {"150.0": {putChainEntry(1.40, 1.60, 1.45, 30)}},
			"2023-11-17:90": {"150.0": {putChainEntry(1.90, 2.10, 1.95, 90)}},
		},
	}}
	service := NewOptionChainService(provider)

	result, err := service.HighestReturnPut("AAPL", 150, "2023-08-16", "2023-12-01", true)

	require.NoError(t, err)
	assert.Equal(t, "PUT", provider.lastContractType)
	// Nearer expiration wins: 1.50/150 over 30 days annualizes to 12.17%,
	// against 5.41% for 2.00/150 over 90 days.
	assert.Equal(t, "2023-09-15", result.ExpirationDate)
	assert.InDelta(t, 1.50, result.Price, 1e-9)
	assert.InDelta(t, 12.17, result.AnnualizedReturn, 1e-9)
	assert.Equal(t, 150.0, result.StrikePrice)
}

func TestHighestReturnPutUsesMarkPrice(t *testing.T) {
	provider := &fakeChainProvider{chain: &models.OptionChain{
		Symbol: "AAPL",
		PutExpDateMap: map[string]map[string][]models.ChainOption{
			"2023-09-15:30": {"150.0": {putChainEntry(1.40, 1.60, 1.45, 30)}},
		},
	}}
	service := NewOptionChainService(provider)

	result, err := service.HighestReturnPut("AAPL", 150, "2023-08-16", "2023-10-01", false)

	require.NoError(t, err)
	assert.InDelta(t, 1.45, result.Price, 1e-9)
	assert.InDelta(t, 11.76, result.AnnualizedReturn, 1e-9)
}

func TestHighestReturnPutSkipsExpiringToday(t *testing.T) {
	provider := &fakeChainProvider{chain: &models.OptionChain{
		Symbol: "AAPL",
		PutExpDateMap: map[string]map[string][]models.ChainOption{
			"2023-08-16:0": {"150.0": {putChainEntry(5.00, 5.20, 5.10, 0)}},
		},
	}}
	service := NewOptionChainService(provider)

	_, err := service.HighestReturnPut("AAPL", 150, "2023-08-16", "2023-10-01", true)
	assert.ErrorIs(t, err, ErrNoEligiblePut)
}

func TestHighestReturnPutIgnoresOtherStrikes(t *testing.T) {
	provider := &fakeChainProvider{chain: &models.OptionChain{
		Symbol: "AAPL",
		PutExpDateMap: map[string]map[string][]models.ChainOption{
			"2023-09-15:30": {
				"145.0": {putChainEntry(9.00, 9.20, 9.10, 30)},
				"150.0": {putChainEntry(1.40, 1.60, 1.45, 30)},
			},
		},
	}}
	service := NewOptionChainService(provider)

	result, err := service.HighestReturnPut("AAPL", 150, "2023-08-16", "2023-10-01", true)

	require.NoError(t, err)
	assert.InDelta(t, 1.50, result.Price, 1e-9)
}

func TestHighestReturnPutEmptyChain(t *testing.T) {
	provider := &fakeChainProvider{chain: &models.OptionChain{Symbol: "AAPL"}}
	service := NewOptionChainService(provider)

	_, err := service.HighestReturnPut("AAPL", 150, "2023-08-16", "2023-10-01", true)
	assert.ErrorIs(t, err, ErrNoEligiblePut)
}

func TestHighestReturnPutProviderError(t *testing.T) {
	provider := &fakeChainProvider{err: errors.New("broker unavailable")}
	service := NewOptionChainService(provider)

	_, err := service.HighestReturnPut("AAPL", 150, "2023-08-16", "2023-10-01", true)
	assert.Error(t, err)
}

func TestHighestReturnPutValidation(t *testing.T) {
	service := NewOptionChainService(&fakeChainProvider{})

	_, err := service.HighestReturnPut("AAPL", 0, "2023-08-16", "2023-10-01", true)
	assert.Error(t, err)

	_, err = service.HighestReturnPut("AAPL", 150, "bad", "2023-10-01", true)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

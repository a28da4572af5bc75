// backend/src/services/option_chain_service.go
package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/models"
	"github.com/username/optionvisor/backend/src/utils"
)

// DefaultChainStrikeCount bounds how many strikes around the money the chain
// fetch requests.
const DefaultChainStrikeCount = 25

type optionChainServiceImpl struct {
	provider OptionChainProvider
}

// NewOptionChainService creates a chain screener over the given provider.
func NewOptionChainService(provider OptionChainProvider) OptionChainService {
	return &optionChainServiceImpl{provider: provider}
}

// HighestReturnPut scans the put chain for the given strike across every
// expiration in [fromDate, toDate] and returns the contract with the highest
// annualized premium return (premium / strike, scaled to a 365-day year).
// With useMidPrice the premium is the bid/ask midpoint, otherwise the broker's
// mark. Contracts expiring today are skipped; the annualization divides by
// days to expiration.
func (s *optionChainServiceImpl) HighestReturnPut(symbol string, strike float64, fromDate, toDate string, useMidPrice bool) (*models.PutReturn, error) {
	if strike <= 0 {
		return nil, fmt.Errorf("strike must be positive, got %g", strike)
	}
	if utils.ParseDate(fromDate).IsZero() || utils.ParseDate(toDate).IsZero() {
		return nil, ErrInvalidDateRange
	}

	chain, err := s.provider.GetOptionChain(symbol, fromDate, toDate, DefaultChainStrikeCount, "PUT")
	if err != nil {
		return nil, err
	}
	if chain == nil || len(chain.PutExpDateMap) == 0 {
		return nil, fmt.Errorf("%w: empty put chain for %s", ErrNoEligiblePut, symbol)
	}

	var best *models.PutReturn
	for expDate, strikes := range chain.PutExpDateMap {
		for strikeStr, options := range strikes {
			strikePrice, err := strconv.ParseFloat(strikeStr, 64)
			if err != nil {
				logger.L.Warn("Skipping chain strike with non-numeric key", "symbol", symbol, "strike", strikeStr)
				continue
			}
			if utils.AbsFloat(strikePrice-strike) > utils.QuantityEpsilon {
				continue
			}
			for _, option := range options {
				price := option.Mark
				if useMidPrice {
					price = (option.Bid + option.Ask) / 2
				}
				if option.DaysToExpiration == 0 {
					continue
				}
				annualized := utils.RoundFloat(price/strike*(365.0/float64(option.DaysToExpiration))*100, 2)
				if best == nil || annualized > best.AnnualizedReturn {
					best = &models.PutReturn{
						Symbol:           symbol,
						StrikePrice:      strike,
						ExpirationDate:   expirationFromChainKey(expDate),
						Price:            price,
						AnnualizedReturn: annualized,
					}
				}
			}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: %s @ %g in %s..%s", ErrNoEligiblePut, symbol, strike, fromDate, toDate)
	}
	logger.L.Info("Chain screen complete", "symbol", symbol, "strike", strike,
		"expiration", best.ExpirationDate, "annualizedReturn", best.AnnualizedReturn)
	return best, nil
}

// expirationFromChainKey strips the ":days" suffix the broker appends to
// expiration map keys ("2024-06-21:30" becomes "2024-06-21").
func expirationFromChainKey(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

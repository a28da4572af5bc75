package processors

import (
	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/models"
	"github.com/username/optionvisor/backend/src/utils"
)

// ContractTypeAll disables put/call filtering.
const ContractTypeAll = "ALL"

// legNormalizerImpl implements the LegNormalizer interface.
type legNormalizerImpl struct{}

// NewLegNormalizer creates a new instance of LegNormalizer.
func NewLegNormalizer() LegNormalizer {
	return &legNormalizerImpl{}
}

// Extract walks every transfer item of every transaction and emits one
// OptionLeg per option movement that passes the ticker and contract-type
// filters. An empty ticker matches all underlyings. Transactions without
// transfer items, items without an instrument, and non-option instruments are
// skipped without error.
func (n *legNormalizerImpl) Extract(transactions []models.Transaction, ticker string, contractType string) []models.OptionLeg {
	var legs []models.OptionLeg

	for _, tx := range transactions {
		for _, item := range tx.TransferItems {
			if item.Instrument == nil || item.Instrument.AssetType != "OPTION" {
				continue
			}
			if contractType != "" && contractType != ContractTypeAll && item.Instrument.PutCall != contractType {
				continue
			}

			symbol := item.Instrument.Symbol
			decodedTicker, strikePrice, expirationDate, err := ParseOptionSymbol(symbol)
			if err != nil {
				// A leg without a decodable contract identity can never be
				// matched; exclude it instead of polluting a shared empty key.
				logger.L.Error("Skipping option leg with malformed symbol", "symbol", symbol, "error", err)
				continue
			}

			underlying := item.Instrument.UnderlyingSymbol
			if underlying == "" {
				underlying = decodedTicker
			}
			if ticker != "" && ticker != underlying {
				continue
			}

			legs = append(legs, models.OptionLeg{
				TradeDate:        utils.DateOnly(tx.TradeDate),
				ExpirationDate:   expirationDate,
				UnderlyingSymbol: underlying,
				StrikePrice:      strikePrice,
				Symbol:           symbol,
				Price:            item.Price, // zero when the feed omits it
				Quantity:         item.Amount,
				PositionEffect:   item.PositionEffect,
				OptionType:       item.Instrument.PutCall,
				ActivityType:     tx.Type,
				Description:      tx.Description,
			})
		}
	}

	return legs
}

package processors

import (
	"github.com/username/optionvisor/backend/src/models"
)

// LegNormalizer defines the interface for extracting option legs from raw
// broker transactions, applying ticker and contract-type filters.
type LegNormalizer interface {
	Extract(transactions []models.Transaction, ticker string, contractType string) []models.OptionLeg
}

// LotCombiner defines the interface for collapsing same-day, same-contract,
// same-direction partial fills into single weighted-average lots.
type LotCombiner interface {
	Combine(legs []models.OptionLeg) []models.OptionLeg
}

// TradeClassifier determines whether a closing leg is a normal close, an
// expiration, or an assignment, from transaction metadata and description text.
type TradeClassifier interface {
	Classify(leg models.OptionLeg) models.TradeClassification
}

// OptionMatcher pairs opening and closing lots per contract in FIFO order.
type OptionMatcher interface {
	Match(lots []models.OptionLeg) ([]models.MatchedTrade, []models.UnmatchedLeg)
}

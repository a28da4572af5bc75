package processors

import (
	"strings"

	"github.com/username/optionvisor/backend/src/models"
)

// NonTradeActivityType is the broker's type code for transfers that move a
// position without a market trade (expirations, assignments, exercises).
const NonTradeActivityType = "RECEIVE_AND_DELIVER"

// tradeClassifierImpl implements the TradeClassifier interface. The keyword
// set is part of the contract with the broker's free-text descriptions, so it
// is injected rather than hard-coded.
type tradeClassifierImpl struct {
	expirationKeyword string
	assignmentKeyword string
}

// NewTradeClassifier creates a TradeClassifier matching the given description
// keywords for non-trade transfers.
func NewTradeClassifier(expirationKeyword, assignmentKeyword string) TradeClassifier {
	return &tradeClassifierImpl{
		expirationKeyword: expirationKeyword,
		assignmentKeyword: assignmentKeyword,
	}
}

// Classify labels a closing leg. Ordinary type codes are normal market closes;
// RECEIVE_AND_DELIVER transfers are classified from the broker's description
// text, degrading to UNKNOWN (never an error) when no keyword matches.
func (c *tradeClassifierImpl) Classify(leg models.OptionLeg) models.TradeClassification {
	if leg.ActivityType != NonTradeActivityType {
		return models.ClassificationClosed
	}
	switch {
	case strings.Contains(leg.Description, c.expirationKeyword):
		return models.ClassificationExpiration
	case strings.Contains(leg.Description, c.assignmentKeyword):
		return models.ClassificationAssignment
	default:
		return models.ClassificationUnknown
	}
}

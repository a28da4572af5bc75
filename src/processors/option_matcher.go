package processors

import (
	"sort"

	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/models"
	"github.com/username/optionvisor/backend/src/utils"
)

// optionMatcherImpl implements the OptionMatcher interface.
type optionMatcherImpl struct {
	classifier TradeClassifier
}

// NewOptionMatcher creates an OptionMatcher that labels closing lots with the
// given classifier.
func NewOptionMatcher(classifier TradeClassifier) OptionMatcher {
	return &optionMatcherImpl{classifier: classifier}
}

// Match groups lots by contract identity, splits each group into opening and
// closing queues sorted by trade date, and pairs them oldest-first. FIFO is a
// reporting policy of this engine, not a rule the broker enforces. Partial
// fills leave a remainder at the head of its queue for the next iteration;
// whatever cannot be paired is returned as unmatched rather than dropped.
func (m *optionMatcherImpl) Match(lots []models.OptionLeg) ([]models.MatchedTrade, []models.UnmatchedLeg) {
	grouped := make(map[models.ContractKey][]models.OptionLeg)
	var order []models.ContractKey
	for _, lot := range lots {
		key := lot.Key()
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], lot)
	}

	var matched []models.MatchedTrade
	var unmatched []models.UnmatchedLeg

	for _, key := range order {
		group := grouped[key]

		var opens, closes []models.OptionLeg
		for _, lot := range group {
			switch lot.PositionEffect {
			case "OPENING":
				opens = append(opens, lot)
			case "CLOSING":
				closes = append(closes, lot)
			default:
				// A lot without a position effect cannot take a FIFO slot;
				// surface it so a human can investigate.
				logger.L.Warn("Option lot has no position effect, surfacing as unmatched",
					"symbol", lot.Symbol, "date", lot.TradeDate, "qty", lot.Quantity)
				unmatched = append(unmatched, models.UnmatchedLeg{
					Lot:            lot,
					Classification: models.ClassificationUnknown,
				})
			}
		}

		// Stable sort: same-day lots keep their feed order.
		sort.SliceStable(opens, func(i, j int) bool {
			return utils.ParseDate(opens[i].TradeDate).Before(utils.ParseDate(opens[j].TradeDate))
		})
		sort.SliceStable(closes, func(i, j int) bool {
			return utils.ParseDate(closes[i].TradeDate).Before(utils.ParseDate(closes[j].TradeDate))
		})

		// Index-based queues: heads advance on exhaustion, a partial remainder
		// stays in place with its quantity reduced.
		oi, ci := 0, 0
		for oi < len(opens) && ci < len(closes) {
			openLot := &opens[oi]
			closeLot := &closes[ci]

			openQty := utils.AbsFloat(openLot.Quantity)
			closeQty := utils.AbsFloat(closeLot.Quantity)
			matchedQty := utils.MinFloat(openQty, closeQty)
			signedQty := matchedQty * utils.SignFloat(openLot.Quantity)

			classification := m.classifier.Classify(*closeLot)
			priceDifference := openLot.Price - closeLot.Price
			if classification == models.ClassificationAssignment {
				// Assignment transfers the underlying at strike; no separate
				// option P/L is realized on the option leg itself.
				priceDifference = 0
			}

			matched = append(matched, models.MatchedTrade{
				Key:             key,
				Symbol:          openLot.Symbol,
				OpenDate:        openLot.TradeDate,
				CloseDate:       utils.MinCloseDate(closeLot.TradeDate, openLot.ExpirationDate),
				OpenPrice:       openLot.Price,
				ClosePrice:      closeLot.Price,
				Quantity:        signedQty,
				PriceDifference: priceDifference,
				Classification:  classification,
			})

			if openQty-matchedQty > utils.QuantityEpsilon {
				logger.L.Warn("Open/close quantity mismatch, keeping opening remainder",
					"symbol", openLot.Symbol, "openQty", openQty, "closeQty", closeQty)
				openLot.Quantity = (openQty - matchedQty) * utils.SignFloat(openLot.Quantity)
				ci++
			} else if closeQty-matchedQty > utils.QuantityEpsilon {
				logger.L.Warn("Open/close quantity mismatch, keeping closing remainder",
					"symbol", closeLot.Symbol, "openQty", openQty, "closeQty", closeQty)
				closeLot.Quantity = (closeQty - matchedQty) * utils.SignFloat(closeLot.Quantity)
				oi++
			} else {
				oi++
				ci++
			}
		}

		for ; oi < len(opens); oi++ {
			unmatched = append(unmatched, models.UnmatchedLeg{
				Lot:            opens[oi],
				Classification: models.ClassificationOpening,
			})
		}
		for ; ci < len(closes); ci++ {
			unmatched = append(unmatched, models.UnmatchedLeg{
				Lot:            closes[ci],
				Classification: m.classifier.Classify(closes[ci]),
			})
		}
	}

	return matched, unmatched
}

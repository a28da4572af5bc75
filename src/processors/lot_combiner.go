package processors

import (
	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/models"
)

// lotCombinerImpl implements the LotCombiner interface.
type lotCombinerImpl struct{}

// NewLotCombiner creates a new instance of LotCombiner.
func NewLotCombiner() LotCombiner {
	return &lotCombinerImpl{}
}

// Combine merges legs sharing (contract, trade date, position effect) into a
// single lot: quantity is the sum of the signed member quantities and price is
// the quantity-weighted average of member prices. Brokers frequently split one
// intended trade into several same-day fill records at different micro-prices;
// without this step each fill would occupy its own FIFO slot and overstate
// trade counts. Fills on different days never merge. Groups of size one pass
// through unchanged, and first-seen group order is preserved.
func (c *lotCombinerImpl) Combine(legs []models.OptionLeg) []models.OptionLeg {
	grouped := make(map[models.LotKey][]models.OptionLeg)
	var order []models.LotKey

	for _, leg := range legs {
		key := models.LotKey{ContractKey: leg.Key(), TradeDate: leg.TradeDate, PositionEffect: leg.PositionEffect}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], leg)
	}

	var lots []models.OptionLeg
	for _, key := range order {
		members := grouped[key]
		if len(members) == 1 {
			lots = append(lots, members[0])
			continue
		}

		lot := members[0]
		var totalQty, weightedPrice float64
		for _, m := range members {
			totalQty += m.Quantity
			weightedPrice += m.Price * m.Quantity
		}
		lot.Quantity = totalQty
		if totalQty != 0 {
			lot.Price = weightedPrice / totalQty
		} else {
			logger.L.Warn("Combined lot has zero total quantity, defaulting price to 0",
				"symbol", lot.Symbol, "positionEffect", lot.PositionEffect, "fills", len(members))
			lot.Price = 0
		}
		lots = append(lots, lot)
	}

	return lots
}

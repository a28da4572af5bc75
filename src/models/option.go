package models

// TradeClassification labels how an option position was (or was not) closed.
type TradeClassification string

const (
	// ClassificationClosed is a normal closing market trade.
	ClassificationClosed TradeClassification = "CLOSED"
	// ClassificationExpiration means the contract lapsed worthless.
	ClassificationExpiration TradeClassification = "EXPIRATION"
	// ClassificationAssignment means the short option was exercised by the
	// counterparty and settled in the underlying.
	ClassificationAssignment TradeClassification = "ASSIGNMENT"
	// ClassificationUnknown marks a non-trade closing leg whose description
	// matched none of the configured keywords. Surfaced, never dropped.
	ClassificationUnknown TradeClassification = "UNKNOWN"
	// ClassificationOpening marks a still-open (unmatched) opening leg.
	ClassificationOpening TradeClassification = "OPENING"
)

// OptionContractMultiplier is the standard share count per option contract.
const OptionContractMultiplier = 100.0

// OptionLeg is one option movement extracted from a broker transaction,
// restricted to legs that passed the caller's ticker and contract-type
// filters. Dates are normalized: TradeDate is YYYY-MM-DD, ExpirationDate is
// the symbol decoder's YY-MM-DD form (downstream grouping keys depend on that
// exact formatting). Lots produced by the combiner reuse this shape with a
// summed quantity and weighted-average price.
type OptionLeg struct {
	TradeDate        string  `json:"date"`
	ExpirationDate   string  `json:"expirationDate"`
	UnderlyingSymbol string  `json:"underlying_symbol"`
	StrikePrice      float64 `json:"strike_price"`
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Quantity         float64 `json:"qty"`             // signed: + bought/received, - sold/delivered
	PositionEffect   string  `json:"position_effect"` // "OPENING", "CLOSING" or ""
	OptionType       string  `json:"option_type"`     // "PUT" or "CALL"
	ActivityType     string  `json:"activity_type"`   // parent transaction type code
	Description      string  `json:"description"`     // parent transaction description
}

// ContractKey identifies one option contract independent of position effect.
type ContractKey struct {
	UnderlyingSymbol string
	StrikePrice      float64
	ExpirationDate   string
	OptionType       string
}

// Key returns the leg's contract identity.
func (l OptionLeg) Key() ContractKey {
	return ContractKey{
		UnderlyingSymbol: l.UnderlyingSymbol,
		StrikePrice:      l.StrikePrice,
		ExpirationDate:   l.ExpirationDate,
		OptionType:       l.OptionType,
	}
}

// LotKey extends ContractKey with the trade date and position effect; the lot
// combiner merges same-day fills sharing a LotKey. The date matters: fills on
// different days are distinct FIFO lots with their own open dates and prices.
type LotKey struct {
	ContractKey
	TradeDate      string
	PositionEffect string
}

// MatchedTrade pairs one opening lot (or portion) with one closing lot for the
// same contract. Quantity carries the opening lot's sign. PriceDifference is
// the per-contract realized basis before the multiplier (zero for
// assignments). Immutable once created.
type MatchedTrade struct {
	Key             ContractKey
	Symbol          string
	OpenDate        string
	CloseDate       string // min(closing trade date, contract expiration)
	OpenPrice       float64
	ClosePrice      float64
	Quantity        float64
	PriceDifference float64
	Classification  TradeClassification
}

// UnmatchedLeg is an opening or closing lot that could not be paired
// (quantity imbalance, or contract still open at window end). Surfaced to the
// caller alongside matched trades so open positions are visible.
type UnmatchedLeg struct {
	Lot            OptionLeg
	Classification TradeClassification
}

// OptionTradeRecord is the caller-facing reconciliation result row.
type OptionTradeRecord struct {
	Date             string              `json:"date"` // opening trade date
	CloseDate        string              `json:"close_date,omitempty"`
	UnderlyingSymbol string              `json:"underlying_symbol"`
	ExpirationDate   string              `json:"expirationDate"`
	StrikePrice      float64             `json:"strike_price"`
	Symbol           string              `json:"symbol"`
	Price            float64             `json:"price"`  // signed per-contract P/L basis
	Amount           float64             `json:"amount"` // signed matched quantity
	TotalAmount      float64             `json:"total_amount"`
	OptionType       string              `json:"option_type"`
	Type             TradeClassification `json:"type"`
}

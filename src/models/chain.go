package models

// ChainOption is one contract entry of a broker option chain. Only the
// pricing fields the chain screener consumes are decoded.
type ChainOption struct {
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	Mark             float64 `json:"mark"`
	DaysToExpiration int     `json:"daysToExpiration"`
}

// OptionChain is the broker's chain response, keyed expiration date first
// ("YYYY-MM-DD:days"), then strike price as a decimal string.
type OptionChain struct {
	Symbol         string                              `json:"symbol"`
	Status         string                              `json:"status,omitempty"`
	Underlying     float64                             `json:"underlyingPrice,omitempty"`
	PutExpDateMap  map[string]map[string][]ChainOption `json:"putExpDateMap"`
	CallExpDateMap map[string]map[string][]ChainOption `json:"callExpDateMap"`
}

// PutReturn is the screener's pick: the put at a given strike with the
// highest annualized premium return over the searched expiration window.
type PutReturn struct {
	Symbol           string  `json:"symbol"`
	StrikePrice      float64 `json:"strike_price"`
	ExpirationDate   string  `json:"expiration_date"`
	Price            float64 `json:"price"`
	AnnualizedReturn float64 `json:"annualized_return"`
}

package models

// Instrument is the security attached to one transfer item of a broker
// activity. Option-only fields (PutCall, StrikePrice, UnderlyingSymbol,
// ExpirationDate) are populated only when AssetType is "OPTION".
type Instrument struct {
	AssetType        string  `json:"assetType"`
	Cusip            string  `json:"cusip,omitempty"`
	Symbol           string  `json:"symbol,omitempty"`
	Description      string  `json:"description,omitempty"`
	InstrumentID     int64   `json:"instrumentId,omitempty"`
	NetChange        float64 `json:"netChange,omitempty"`
	ClosingPrice     float64 `json:"closingPrice,omitempty"`
	Type             string  `json:"type,omitempty"`
	PutCall          string  `json:"putCall,omitempty"`          // "PUT" or "CALL"
	UnderlyingSymbol string  `json:"underlyingSymbol,omitempty"` // root ticker for options
	StrikePrice      float64 `json:"strikePrice,omitempty"`
	ExpirationDate   string  `json:"expirationDate,omitempty"`
}

// TransferItem is one instrument movement inside a broker activity.
// Amount is signed: positive = bought/received, negative = sold/delivered.
type TransferItem struct {
	Instrument     *Instrument `json:"instrument,omitempty"`
	Amount         float64     `json:"amount"`
	Cost           float64     `json:"cost,omitempty"`
	Price          float64     `json:"price,omitempty"`
	FeeType        string      `json:"feeType,omitempty"`
	PositionEffect string      `json:"positionEffect,omitempty"` // "OPENING", "CLOSING" or absent
}

// Transaction is one account activity as returned by the broker API.
// Type distinguishes market trades ("TRADE") from non-trade transfers such as
// expirations and assignments ("RECEIVE_AND_DELIVER").
type Transaction struct {
	ActivityID     int64          `json:"activityId,omitempty"`
	Time           string         `json:"time,omitempty"`
	Description    string         `json:"description,omitempty"`
	AccountNumber  string         `json:"accountNumber,omitempty"`
	Type           string         `json:"type"`
	Status         string         `json:"status,omitempty"`
	SubAccount     string         `json:"subAccount,omitempty"`
	TradeDate      string         `json:"tradeDate"`
	SettlementDate string         `json:"settlementDate,omitempty"`
	PositionID     int64          `json:"positionId,omitempty"`
	OrderID        int64          `json:"orderId,omitempty"`
	NetAmount      float64        `json:"netAmount,omitempty"`
	ActivityType   string         `json:"activityType,omitempty"`
	TransferItems  []TransferItem `json:"transferItems,omitempty"`
}

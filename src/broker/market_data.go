// backend/src/broker/market_data.go
package broker

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/models"
)

// quoteEnvelope is the per-symbol payload of the quotes endpoint; only the
// fields the dashboard displays are decoded.
type quoteEnvelope struct {
	Quote struct {
		LastPrice  float64 `json:"lastPrice"`
		ClosePrice float64 `json:"closePrice"`
	} `json:"quote"`
}

// MarketDataClient implements services.QuoteProvider against the broker's
// market data API.
type MarketDataClient struct {
	client  *Client
	baseURL string
}

// NewMarketDataClient creates a quote provider.
func NewMarketDataClient(client *Client, baseURL string) *MarketDataClient {
	return &MarketDataClient{client: client, baseURL: baseURL}
}

// GetTickerPrice returns the last traded price for a symbol, falling back to
// the previous close when the market has not traded it yet.
func (m *MarketDataClient) GetTickerPrice(symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("fields", "quote")

	quotes := make(map[string]quoteEnvelope)
	if err := m.client.GetJSON(m.baseURL+"/quotes", params, &quotes); err != nil {
		return 0, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}

	envelope, ok := quotes[symbol]
	if !ok {
		return 0, fmt.Errorf("no quote returned for %s", symbol)
	}

	price := envelope.Quote.LastPrice
	if price == 0 {
		price = envelope.Quote.ClosePrice
	}
	logger.L.Debug("Fetched quote", "symbol", symbol, "price", price)
	return price, nil
}

// GetOptionChain fetches the option chain for an underlying over an
// expiration window (dates YYYY-MM-DD). contractType is "PUT", "CALL" or
// "ALL".
func (m *MarketDataClient) GetOptionChain(symbol, fromDate, toDate string, strikeCount int, contractType string) (*models.OptionChain, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("strikeCount", strconv.Itoa(strikeCount))
	params.Set("contractType", contractType)
	params.Set("fromDate", fromDate)
	params.Set("toDate", toDate)

	var chain models.OptionChain
	if err := m.client.GetJSON(m.baseURL+"/chains", params, &chain); err != nil {
		return nil, fmt.Errorf("fetching option chain for %s: %w", symbol, err)
	}

	logger.L.Debug("Fetched option chain", "symbol", symbol,
		"putExpirations", len(chain.PutExpDateMap), "callExpirations", len(chain.CallExpDateMap))
	return &chain, nil
}

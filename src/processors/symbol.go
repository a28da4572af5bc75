package processors

import (
	"fmt"
	"strconv"
	"strings"
)

// Option symbols are fixed-width: a 6-character root ticker padded with
// spaces, a 6-digit YYMMDD expiration, a 1-character P/C flag, and an 8-digit
// strike scaled by 1000. Example: "AAPL  230915P00150000".
const (
	symbolTickerWidth   = 6
	symbolStrikeOffset  = 13
	symbolStrikeWidth   = 8
	symbolMinLength     = 15
	symbolStrikeDivisor = 1000.0
)

// ParseOptionSymbol extracts (ticker, strike price, expiration date) from a
// fixed-width option symbol. The expiration is returned as "YY-MM-DD"; the
// exact formatting matters because downstream grouping keys are built from it.
// Returns an error for symbols that are too short or carry a non-numeric
// strike field.
func ParseOptionSymbol(symbol string) (string, float64, string, error) {
	if len(symbol) < symbolMinLength {
		return "", 0, "", fmt.Errorf("option symbol %q too short: %d chars", symbol, len(symbol))
	}

	strikeEnd := symbolStrikeOffset + symbolStrikeWidth
	if len(symbol) < strikeEnd {
		strikeEnd = len(symbol)
	}
	strikeRaw, err := strconv.ParseFloat(symbol[symbolStrikeOffset:strikeEnd], 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("option symbol %q has non-numeric strike field: %w", symbol, err)
	}

	ticker := strings.TrimSpace(symbol[:symbolTickerWidth])
	strikePrice := strikeRaw / symbolStrikeDivisor
	expirationDate := fmt.Sprintf("%s-%s-%s", symbol[6:8], symbol[8:10], symbol[10:12])

	return ticker, strikePrice, expirationDate, nil
}

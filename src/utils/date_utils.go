package utils

import (
	"log"
	"time"
)

const (
	// DefaultDateFormat is the wire format for all caller-facing dates.
	DefaultDateFormat = "2006-01-02"
	// ShortDateFormat is the two-digit-year format produced by the option
	// symbol decoder (e.g. "23-09-15").
	ShortDateFormat = "06-01-02"
)

// ParseDate parses a YYYY-MM-DD date string.
// Logs an error and returns zero time if parsing fails.
func ParseDate(dateStr string) time.Time {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		log.Printf("Error parsing date '%s' with format '%s': %v. Returning zero time.", dateStr, DefaultDateFormat, err)
		return time.Time{}
	}
	return t
}

// ParseShortDate parses a YY-MM-DD date string as produced by the symbol decoder.
// Logs an error and returns zero time if parsing fails.
func ParseShortDate(dateStr string) time.Time {
	t, err := time.Parse(ShortDateFormat, dateStr)
	if err != nil {
		log.Printf("Error parsing date '%s' with format '%s': %v. Returning zero time.", dateStr, ShortDateFormat, err)
		return time.Time{}
	}
	return t
}

// ToISO8601 converts a YYYY-MM-DD date string to the ISO 8601 timestamp
// the broker API expects for range parameters.
func ToISO8601(dateStr string) string {
	t := ParseDate(dateStr)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04:05.000Z")
}

// DateOnly reduces a broker ISO 8601 timestamp (e.g. "2023-10-01T09:30:00-04:00")
// to its YYYY-MM-DD date part. Returns the input unchanged when it is already a
// plain date, and "" when it cannot be parsed at all.
func DateOnly(datetimeStr string) string {
	if len(datetimeStr) == len(DefaultDateFormat) {
		if t := ParseDate(datetimeStr); !t.IsZero() {
			return datetimeStr
		}
		return ""
	}
	t, err := time.Parse(time.RFC3339, datetimeStr)
	if err != nil {
		log.Printf("Invalid datetime string '%s': %v", datetimeStr, err)
		return ""
	}
	return t.Format(DefaultDateFormat)
}

// MinCloseDate returns the earlier of a closing trade date (YYYY-MM-DD) and a
// contract expiration date (YY-MM-DD), formatted as YYYY-MM-DD. Broker feeds
// occasionally record the closing transaction after the contract's nominal
// expiration; the expiration caps the reported close date in that case.
func MinCloseDate(tradeDate, expirationDate string) string {
	traded := ParseDate(tradeDate)
	expires := ParseShortDate(expirationDate)
	if traded.IsZero() {
		if expires.IsZero() {
			return tradeDate
		}
		return expires.Format(DefaultDateFormat)
	}
	if !expires.IsZero() && expires.Before(traded) {
		return expires.Format(DefaultDateFormat)
	}
	return tradeDate
}

// ShiftDate adds days to a YYYY-MM-DD date string and returns it in the same format.
func ShiftDate(dateStr string, days int) string {
	t := ParseDate(dateStr)
	if t.IsZero() {
		return dateStr
	}
	return t.AddDate(0, 0, days).Format(DefaultDateFormat)
}

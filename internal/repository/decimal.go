package repository

import "github.com/shopspring/decimal"

// parseDecimal converts a DECIMAL column scanned as a string. Money columns
// are scanned as strings and parsed so no float conversion ever touches an
// amount.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

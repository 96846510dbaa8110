package domain

import "github.com/shopspring/decimal"

// ValidateQuantities rejects negative quantity or rate before any mutation
// touches the ledger.
func ValidateQuantities(quantity, rate decimal.Decimal) error {
	if quantity.IsNegative() {
		return ErrInvalidQuantity
	}

	if rate.IsNegative() {
		return ErrInvalidRate
	}

	return nil
}

package domain

import "errors"

var (
	// Ledger errors
	ErrStockEntryNotFound = errors.New("stock entry not found")
	ErrInvalidQuantity    = errors.New("quantity must not be negative")
	ErrInvalidRate        = errors.New("rate must not be negative")
	ErrDuplicateChallan   = errors.New("challan number already recorded")

	// Consumption errors
	ErrConsumptionNotFound = errors.New("consumption event not found")
	ErrNoStockAvailable    = errors.New("no stock available for consumption")

	// Reporting errors
	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidMonth  = errors.New("invalid month, expected YYYY-MM")

	// ErrRecalculationAborted marks a recalculation pass that could not
	// complete. The surrounding transaction is rolled back in full.
	ErrRecalculationAborted = errors.New("stock recalculation aborted")
)

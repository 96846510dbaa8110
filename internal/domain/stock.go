package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntry is one fuel purchase batch in the ledger. Amount and Stock are
// derived columns: Amount = Quantity × Rate and Stock is the running balance
// after this entry. Only the recalculation pass writes them.
type StockEntry struct {
	ID        int64
	ChallanNo int64
	Date      time.Time
	PartyName string
	Quantity  decimal.Decimal
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	Stock     decimal.Decimal
}

// Recompute derives Amount and Stock from the running balance before this
// entry and returns the new running balance.
func (e *StockEntry) Recompute(base decimal.Decimal) decimal.Decimal {
	e.Amount = e.Quantity.Mul(e.Rate)
	e.Stock = base.Add(e.Quantity)

	return e.Stock
}

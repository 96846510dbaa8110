package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConsumptionEvent records fuel drawn by an asset. The event does not own a
// stock entry; recording it decrements the quantity of the open batch (the
// stock entry with the greatest identity at that moment) and deleting it
// increments whichever entry is the open batch at deletion time. This is
// single-bucket accounting, not FIFO/LIFO inventory costing.
type ConsumptionEvent struct {
	ID              string
	AssetID         string
	Quantity        decimal.Decimal
	Rate            decimal.Decimal
	PreviousReading decimal.Decimal
	Reading         decimal.Decimal
	Site            string
	Manager         string
	RecordedAt      time.Time
}

// Cost is the value of the drawn fuel at the recorded rate.
func (c *ConsumptionEvent) Cost() decimal.Decimal {
	return c.Quantity.Mul(c.Rate)
}

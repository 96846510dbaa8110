package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripEvent is one unit of work done by an asset: a load hauled, a shift
// worked, or hours run. Several trips can share an asset and calendar day,
// possibly with different materials.
type TripEvent struct {
	ID           string
	AssetID      string
	Date         time.Time
	FromLocation string
	ToLocation   string
	Material     string
	Rate         decimal.Decimal
	Distance     decimal.Decimal
	NetWeight    decimal.Decimal
	Hours        int64
	Shift        int64
}

package domain

import "github.com/shopspring/decimal"

// ActivityStatus is the per-asset usage flag for a reporting month. It is
// computed once per asset and attached identically to every row of that
// asset.
type ActivityStatus string

const (
	StatusActive ActivityStatus = "Active"
	StatusIdle   ActivityStatus = "Idle"
)

// AllocationRow is one reporting line for an (asset, material) pair within a
// billing month. Monetary fields are rounded to 2 decimal places at emission.
type AllocationRow struct {
	AssetLabel     string          `json:"asset_name"`
	Manager        string          `json:"manager"`
	Material       string          `json:"material"`
	Quantity       decimal.Decimal `json:"material_quantity"`
	Rate           decimal.Decimal `json:"rate"`
	DieselQuantity decimal.Decimal `json:"diesel_consumed"`
	DieselCost     decimal.Decimal `json:"diesel_cost"`
	Distance       decimal.Decimal `json:"distance"`
	Amount         decimal.Decimal `json:"amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Status         ActivityStatus  `json:"status"`
}

// ShiftReportRow is the simpler monthly line for shift-billed assets
// (excavators and the remaining classes). Diesel is allocated wholesale to
// the asset. WorkingHours is only populated for excavator-class assets.
type ShiftReportRow struct {
	AssetLabel     string          `json:"asset_name"`
	Manager        string          `json:"manager"`
	WorkingHours   decimal.Decimal `json:"working_hours"`
	MonthlyCharge  decimal.Decimal `json:"monthly_charge"`
	ShiftCharge    decimal.Decimal `json:"shift_charge"`
	Shifts         decimal.Decimal `json:"no_of_shifts"`
	Amount         decimal.Decimal `json:"amount"`
	DieselQuantity decimal.Decimal `json:"diesel_quantity"`
	DieselCost     decimal.Decimal `json:"diesel_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

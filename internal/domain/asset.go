package domain

import "github.com/shopspring/decimal"

// Asset classes that drive the report variant. Tippers haul materials and
// get the distance-proportional diesel split; everything else is billed by
// shift with wholesale diesel allocation.
const (
	AssetTypeTipper    = "Tipper"
	AssetTypeExcavator = "Excavator"
)

// Asset is the projection of a fleet asset needed by the reporting engine.
// Full asset CRUD lives in the surrounding system.
type Asset struct {
	ID             string
	Name           string
	RegistrationNo string
	Type           string
	RatePerMonth   decimal.Decimal
	RatePerShift   decimal.Decimal
}

// Label is the display form used on report rows.
func (a *Asset) Label() string {
	return a.Name + " - " + a.RegistrationNo
}

package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/infrastructure/metrics"
)

// dayKeyFormat keys the per-day grouping maps; lexical order equals
// chronological order.
const dayKeyFormat = "2006-01-02"

// AllocationUseCase is the monthly cost-allocation engine. For tippers it
// splits each day's shared diesel consumption across the materials hauled
// that day, proportional to distance; for every other asset class diesel is
// allocated wholesale to the asset.
type AllocationUseCase struct {
	txManager       TransactionManager
	assetRepo       AssetRepository
	tripRepo        TripRepository
	consumptionRepo ConsumptionRepository
	assignmentRepo  AssignmentRepository
	loc             *time.Location
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// NewAllocationUseCase creates a new AllocationUseCase. loc is the fleet's
// operating timezone; it decides both month bounds and day grouping.
func NewAllocationUseCase(
	txManager TransactionManager,
	assetRepo AssetRepository,
	tripRepo TripRepository,
	consumptionRepo ConsumptionRepository,
	assignmentRepo AssignmentRepository,
	loc *time.Location,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *AllocationUseCase {
	if loc == nil {
		loc = time.UTC
	}

	return &AllocationUseCase{
		txManager:       txManager,
		assetRepo:       assetRepo,
		tripRepo:        tripRepo,
		consumptionRepo: consumptionRepo,
		assignmentRepo:  assignmentRepo,
		loc:             loc,
		logger:          logger,
		metrics:         m,
	}
}

// BuildTipperReport produces one AllocationRow per (asset, material) pair
// for the month token ("YYYY-MM"). Rows keep asset iteration order, then
// material discovery order. The whole read runs on a consistent snapshot so
// a concurrent recalculation pass is never half-visible.
func (uc *AllocationUseCase) BuildTipperReport(ctx context.Context, month string) ([]domain.AllocationRow, error) {
	bounds, err := domain.ParseMonth(month, uc.loc)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	tx, err := uc.txManager.BeginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	assets, err := uc.assetRepo.ListByType(ctx, tx, domain.AssetTypeTipper)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.AllocationRow, 0, len(assets))
	for _, asset := range assets {
		manager, err := uc.managerFor(ctx, tx, asset.ID, bounds.End)
		if err != nil {
			return nil, err
		}

		trips, err := uc.tripRepo.ListByAssetBetween(ctx, tx, asset.ID, bounds.Start, bounds.End)
		if err != nil {
			return nil, err
		}

		draws, err := uc.consumptionRepo.ListByAssetBetween(ctx, tx, asset.ID, bounds.Start, bounds.End)
		if err != nil {
			return nil, err
		}

		rows = append(rows, uc.allocateMaterials(asset, manager, trips, draws)...)
	}

	uc.metrics.ReportBuilds.WithLabelValues("tipper").Inc()
	uc.metrics.ReportDuration.WithLabelValues("tipper").Observe(time.Since(started).Seconds())
	uc.logger.Debug().Str("month", month).Int("rows", len(rows)).Msg("tipper report built")

	return rows, nil
}

// allocateMaterials runs the per-day allocation rule for one asset and folds
// the results into per-material totals.
func (uc *AllocationUseCase) allocateMaterials(
	asset *domain.Asset,
	manager string,
	trips []*domain.TripEvent,
	draws []*domain.ConsumptionEvent,
) []domain.AllocationRow {
	// Day -> material -> trips, with day and material discovery order kept
	// explicit. Trips arrive in timestamp order, so "last trip" below is the
	// chronologically last one.
	tripsByDayMat := make(map[string]map[string][]*domain.TripEvent)
	matOrderByDay := make(map[string][]string)
	var days []string

	for _, trip := range trips {
		day := trip.Date.In(uc.loc).Format(dayKeyFormat)

		mats, ok := tripsByDayMat[day]
		if !ok {
			mats = make(map[string][]*domain.TripEvent)
			tripsByDayMat[day] = mats
			days = append(days, day)
		}

		if _, ok := mats[trip.Material]; !ok {
			matOrderByDay[day] = append(matOrderByDay[day], trip.Material)
		}
		mats[trip.Material] = append(mats[trip.Material], trip)
	}

	sort.Strings(days)

	dieselQtyByDay := make(map[string]decimal.Decimal)
	dieselCostByDay := make(map[string]decimal.Decimal)

	for _, draw := range draws {
		day := draw.RecordedAt.In(uc.loc).Format(dayKeyFormat)
		dieselQtyByDay[day] = dieselQtyByDay[day].Add(draw.Quantity)
		dieselCostByDay[day] = dieselCostByDay[day].Add(draw.Cost())
	}

	type materialTotals struct {
		quantity   decimal.Decimal
		rate       decimal.Decimal
		dieselQty  decimal.Decimal
		dieselCost decimal.Decimal
		distance   decimal.Decimal
	}

	totals := make(map[string]*materialTotals)
	var matOrder []string

	for _, day := range days {
		mats := matOrderByDay[day]

		distByMat := make(map[string]decimal.Decimal, len(mats))
		totalDistance := decimal.Zero
		for _, mat := range mats {
			dist := decimal.Zero
			for _, trip := range tripsByDayMat[day][mat] {
				dist = dist.Add(trip.Distance)
			}
			distByMat[mat] = dist
			totalDistance = totalDistance.Add(dist)
		}

		dayDieselQty := dieselQtyByDay[day]
		dayDieselCost := dieselCostByDay[day]
		singleMaterial := len(mats) == 1

		for _, mat := range mats {
			dayTrips := tripsByDayMat[day][mat]

			quantity := decimal.Zero
			for _, trip := range dayTrips {
				quantity = quantity.Add(trip.NetWeight)
			}
			dist := distByMat[mat]

			var matDieselQty, matDieselCost decimal.Decimal
			switch {
			case singleMaterial:
				matDieselQty = dayDieselQty
				matDieselCost = dayDieselCost
			case totalDistance.IsPositive():
				matDieselQty = dayDieselQty.Mul(dist).Div(totalDistance)
				matDieselCost = dayDieselCost.Mul(dist).Div(totalDistance)
			default:
				// Multiple materials but no distance recorded: the split is
				// ambiguous, so that day allocates nothing.
			}

			tt, ok := totals[mat]
			if !ok {
				tt = &materialTotals{}
				totals[mat] = tt
				matOrder = append(matOrder, mat)
			}

			tt.quantity = tt.quantity.Add(quantity)
			tt.rate = dayTrips[len(dayTrips)-1].Rate
			tt.dieselQty = tt.dieselQty.Add(matDieselQty)
			tt.dieselCost = tt.dieselCost.Add(matDieselCost)
			tt.distance = tt.distance.Add(dist)
		}
	}

	status := domain.StatusIdle
	if len(trips) > 0 {
		status = domain.StatusActive
	}

	rows := make([]domain.AllocationRow, 0, len(matOrder))
	for _, mat := range matOrder {
		tt := totals[mat]
		amount := tt.quantity.Mul(tt.rate)
		finalAmount := amount.Add(tt.dieselCost)

		rows = append(rows, domain.AllocationRow{
			AssetLabel:     asset.Label(),
			Manager:        manager,
			Material:       mat,
			Quantity:       tt.quantity,
			Rate:           tt.rate,
			DieselQuantity: tt.dieselQty.Round(2),
			DieselCost:     tt.dieselCost.Round(2),
			Distance:       tt.distance,
			Amount:         amount.Round(2),
			FinalAmount:    finalAmount.Round(2),
			Status:         status,
		})
	}

	return rows
}

// BuildExcavatorReport produces one ShiftReportRow per excavator with at
// least one trip in the month. Diesel goes wholesale to the asset and the
// amount is shifts × shift charge.
func (uc *AllocationUseCase) BuildExcavatorReport(ctx context.Context, month string) ([]domain.ShiftReportRow, error) {
	return uc.buildShiftReport(ctx, month, "excavator", func(ctx context.Context, tx Transaction) ([]*domain.Asset, error) {
		return uc.assetRepo.ListByType(ctx, tx, domain.AssetTypeExcavator)
	}, true)
}

// BuildOtherAssetsReport covers every asset class that is neither tipper nor
// excavator. Same shape as the excavator report minus working hours.
func (uc *AllocationUseCase) BuildOtherAssetsReport(ctx context.Context, month string) ([]domain.ShiftReportRow, error) {
	return uc.buildShiftReport(ctx, month, "other", func(ctx context.Context, tx Transaction) ([]*domain.Asset, error) {
		return uc.assetRepo.ListExcludingTypes(ctx, tx, []string{domain.AssetTypeTipper, domain.AssetTypeExcavator})
	}, false)
}

func (uc *AllocationUseCase) buildShiftReport(
	ctx context.Context,
	month string,
	kind string,
	listAssets func(context.Context, Transaction) ([]*domain.Asset, error),
	withHours bool,
) ([]domain.ShiftReportRow, error) {
	bounds, err := domain.ParseMonth(month, uc.loc)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	tx, err := uc.txManager.BeginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	assets, err := listAssets(ctx, tx)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.ShiftReportRow, 0, len(assets))
	for _, asset := range assets {
		trips, err := uc.tripRepo.ListByAssetBetween(ctx, tx, asset.ID, bounds.Start, bounds.End)
		if err != nil {
			return nil, err
		}

		// Assets without any work in the month are left off this report.
		if len(trips) == 0 {
			continue
		}

		draws, err := uc.consumptionRepo.ListByAssetBetween(ctx, tx, asset.ID, bounds.Start, bounds.End)
		if err != nil {
			return nil, err
		}

		manager, err := uc.managerFor(ctx, tx, asset.ID, bounds.End)
		if err != nil {
			return nil, err
		}

		var hours, shifts int64
		for _, trip := range trips {
			hours += trip.Hours
			shifts += trip.Shift
		}

		dieselQty := decimal.Zero
		dieselCost := decimal.Zero
		for _, draw := range draws {
			dieselQty = dieselQty.Add(draw.Quantity)
			dieselCost = dieselCost.Add(draw.Cost())
		}

		shiftCount := decimal.NewFromInt(shifts)
		amount := shiftCount.Mul(asset.RatePerShift)
		finalAmount := amount.Add(dieselCost)

		row := domain.ShiftReportRow{
			AssetLabel:     asset.Label(),
			Manager:        manager,
			MonthlyCharge:  asset.RatePerMonth.Round(2),
			ShiftCharge:    asset.RatePerShift.Round(2),
			Shifts:         shiftCount.Round(2),
			Amount:         amount.Round(2),
			DieselQuantity: dieselQty.Round(2),
			DieselCost:     dieselCost.Round(2),
			FinalAmount:    finalAmount.Round(2),
		}
		if withHours {
			row.WorkingHours = decimal.NewFromInt(hours).Round(2)
		}

		rows = append(rows, row)
	}

	uc.metrics.ReportBuilds.WithLabelValues(kind).Inc()
	uc.metrics.ReportDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	uc.logger.Debug().Str("month", month).Str("kind", kind).Int("rows", len(rows)).Msg("shift report built")

	return rows, nil
}

func (uc *AllocationUseCase) managerFor(ctx context.Context, tx Transaction, assetID string, at time.Time) (string, error) {
	name, err := uc.assignmentRepo.ManagerAt(ctx, tx, assetID, at)
	if err != nil {
		return "", err
	}

	if name == "" {
		return "Unassigned", nil
	}

	return name, nil
}

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/infrastructure/metrics"
	"github.com/fleetops/fuelcore/internal/usecase"
	"github.com/fleetops/fuelcore/internal/usecase/mocks"
)

type allocationFixture struct {
	assetRepo      *mocks.MockAssetRepository
	tripRepo       *mocks.MockTripRepository
	eventRepo      *mocks.MockConsumptionRepository
	assignmentRepo *mocks.MockAssignmentRepository
	uc             *usecase.AllocationUseCase
}

func newAllocationFixture(t *testing.T) *allocationFixture {
	t.Helper()

	fx := &allocationFixture{
		assetRepo:      mocks.NewMockAssetRepository(),
		tripRepo:       mocks.NewMockTripRepository(),
		eventRepo:      mocks.NewMockConsumptionRepository(),
		assignmentRepo: mocks.NewMockAssignmentRepository(),
	}
	fx.uc = usecase.NewAllocationUseCase(
		mocks.NewMockTransactionManager(),
		fx.assetRepo,
		fx.tripRepo,
		fx.eventRepo,
		fx.assignmentRepo,
		time.UTC,
		zerolog.Nop(),
		metrics.New(prometheus.NewRegistry()),
	)

	return fx
}

func tripOn(assetID string, day time.Time, material string, rate, distance, netWeight int64) *domain.TripEvent {
	return &domain.TripEvent{
		AssetID:   assetID,
		Date:      day,
		Material:  material,
		Rate:      decimal.NewFromInt(rate),
		Distance:  decimal.NewFromInt(distance),
		NetWeight: decimal.NewFromInt(netWeight),
	}
}

func drawOn(fx *allocationFixture, assetID string, at time.Time, quantity, rate int64) {
	_ = fx.eventRepo.Create(context.Background(), nil, &domain.ConsumptionEvent{
		ID:         assetID + at.Format("02T15:04"),
		AssetID:    assetID,
		Quantity:   decimal.NewFromInt(quantity),
		Rate:       decimal.NewFromInt(rate),
		RecordedAt: at,
	})
}

func TestAllocationUseCase_ProportionalSplit(t *testing.T) {
	fx := newAllocationFixture(t)

	fx.assetRepo.Seed(&domain.Asset{ID: "t1", Name: "Tipper 1", RegistrationNo: "KA01AB1234", Type: domain.AssetTypeTipper})
	fx.assignmentRepo.Assign("t1", "Ravi")

	day := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	fx.tripRepo.Seed(
		tripOn("t1", day, "Sand", 10, 40, 12),
		tripOn("t1", day.Add(2*time.Hour), "Gravel", 15, 60, 18),
	)
	// 20 L at rate 10 shared by both materials that day.
	drawOn(fx, "t1", day.Add(time.Hour), 20, 10)

	rows, err := fx.uc.BuildTipperReport(context.Background(), "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	sand := rows[0]
	assert.Equal(t, "Tipper 1 - KA01AB1234", sand.AssetLabel)
	assert.Equal(t, "Ravi", sand.Manager)
	assert.Equal(t, "Sand", sand.Material)
	// 40 of 100 km: 8 L, 80 cost.
	assert.Equal(t, "8", sand.DieselQuantity.String())
	assert.Equal(t, "80", sand.DieselCost.String())
	assert.Equal(t, "40", sand.Distance.String())
	assert.Equal(t, "120", sand.Amount.String())
	assert.Equal(t, "200", sand.FinalAmount.String())
	assert.Equal(t, domain.StatusActive, sand.Status)

	gravel := rows[1]
	assert.Equal(t, "Gravel", gravel.Material)
	assert.Equal(t, "12", gravel.DieselQuantity.String())
	assert.Equal(t, "120", gravel.DieselCost.String())
	assert.Equal(t, "270", gravel.Amount.String())
	assert.Equal(t, "390", gravel.FinalAmount.String())
}

func TestAllocationUseCase_SingleMaterialGetsFullDay(t *testing.T) {
	fx := newAllocationFixture(t)

	fx.assetRepo.Seed(&domain.Asset{ID: "t1", Name: "Tipper 1", RegistrationNo: "KA01AB1234", Type: domain.AssetTypeTipper})

	day := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	// Zero distance recorded, still a single material: full allocation.
	fx.tripRepo.Seed(tripOn("t1", day, "Sand", 10, 0, 12))
	drawOn(fx, "t1", day, 20, 10)

	rows, err := fx.uc.BuildTipperReport(context.Background(), "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "20", rows[0].DieselQuantity.String())
	assert.Equal(t, "200", rows[0].DieselCost.String())
	assert.Equal(t, "Unassigned", rows[0].Manager)
}

func TestAllocationUseCase_MultiMaterialNoDistanceAllocatesNothing(t *testing.T) {
	fx := newAllocationFixture(t)

	fx.assetRepo.Seed(&domain.Asset{ID: "t1", Name: "Tipper 1", RegistrationNo: "KA01AB1234", Type: domain.AssetTypeTipper})

	day := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	fx.tripRepo.Seed(
		tripOn("t1", day, "Sand", 10, 0, 12),
		tripOn("t1", day.Add(time.Hour), "Gravel", 15, 0, 18),
	)
	drawOn(fx, "t1", day, 20, 10)

	rows, err := fx.uc.BuildTipperReport(context.Background(), "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.True(t, row.DieselQuantity.IsZero(), "material %s got diesel %s", row.Material, row.DieselQuantity)
		assert.True(t, row.DieselCost.IsZero(), "material %s got cost %s", row.Material, row.DieselCost)
	}
}

func TestAllocationUseCase_RateIsLastTripOfMaterial(t *testing.T) {
	fx := newAllocationFixture(t)

	fx.assetRepo.Seed(&domain.Asset{ID: "t1", Name: "Tipper 1", RegistrationNo: "KA01AB1234", Type: domain.AssetTypeTipper})

	day1 := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC)
	fx.tripRepo.Seed(
		tripOn("t1", day1, "Sand", 10, 40, 12),
		tripOn("t1", day2, "Sand", 14, 40, 10),
	)

	rows, err := fx.uc.BuildTipperReport(context.Background(), "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "14", rows[0].Rate.String())
	assert.Equal(t, "22", rows[0].Quantity.String())
	// 22 tonnes at the representative rate.
	assert.Equal(t, "308", rows[0].Amount.String())
}

func TestAllocationUseCase_IdleTipperStillListedWithDraws(t *testing.T) {
	fx := newAllocationFixture(t)

	fx.assetRepo.Seed(
		&domain.Asset{ID: "t1", Name: "Tipper 1", RegistrationNo: "KA01AB1234", Type: domain.AssetTypeTipper},
		&domain.Asset{ID: "t2", Name: "Tipper 2", RegistrationNo: "KA01AB5678", Type: domain.AssetTypeTipper},
	)

	day := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	fx.tripRepo.Seed(tripOn("t1", day, "Sand", 10, 40, 12))
	// t2 drew diesel but hauled nothing; with no trips there is no material
	// row to carry it.
	drawOn(fx, "t2", day, 15, 10)

	rows, err := fx.uc.BuildTipperReport(context.Background(), "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tipper 1 - KA01AB1234", rows[0].AssetLabel)
}

func TestAllocationUseCase_MonthBoundsExcludeNeighbors(t *testing.T) {
	fx := newAllocationFixture(t)

	fx.assetRepo.Seed(&domain.Asset{ID: "t1", Name: "Tipper 1", RegistrationNo: "KA01AB1234", Type: domain.AssetTypeTipper})

	inMonth := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)
	nextMonth := time.Date(2025, 4, 1, 1, 0, 0, 0, time.UTC)
	fx.tripRepo.Seed(
		tripOn("t1", inMonth, "Sand", 10, 40, 12),
		tripOn("t1", nextMonth, "Sand", 10, 40, 30),
	)

	rows, err := fx.uc.BuildTipperReport(context.Background(), "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12", rows[0].Quantity.String())
}

func TestAllocationUseCase_InvalidMonth(t *testing.T) {
	fx := newAllocationFixture(t)

	_, err := fx.uc.BuildTipperReport(context.Background(), "March 2025")
	assert.True(t, errors.Is(err, domain.ErrInvalidMonth))
}

func TestAllocationUseCase_ExcavatorReport(t *testing.T) {
	fx := newAllocationFixture(t)

	fx.assetRepo.Seed(
		&domain.Asset{
			ID: "e1", Name: "Excavator 1", RegistrationNo: "KA02CD1111", Type: domain.AssetTypeExcavator,
			RatePerMonth: decimal.NewFromInt(50000), RatePerShift: decimal.NewFromInt(3000),
		},
		&domain.Asset{
			ID: "e2", Name: "Excavator 2", RegistrationNo: "KA02CD2222", Type: domain.AssetTypeExcavator,
			RatePerShift: decimal.NewFromInt(3000),
		},
	)
	fx.assignmentRepo.Assign("e1", "Suresh")

	day := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	fx.tripRepo.Seed(
		&domain.TripEvent{AssetID: "e1", Date: day, Hours: 8, Shift: 1},
		&domain.TripEvent{AssetID: "e1", Date: day.AddDate(0, 0, 1), Hours: 10, Shift: 2},
	)
	drawOn(fx, "e1", day, 40, 10)
	// e2 has no trips and is skipped entirely.
	drawOn(fx, "e2", day, 15, 10)

	rows, err := fx.uc.BuildExcavatorReport(context.Background(), "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Excavator 1 - KA02CD1111", row.AssetLabel)
	assert.Equal(t, "Suresh", row.Manager)
	assert.Equal(t, "18", row.WorkingHours.String())
	assert.Equal(t, "3", row.Shifts.String())
	assert.Equal(t, "9000", row.Amount.String())
	assert.Equal(t, "40", row.DieselQuantity.String())
	assert.Equal(t, "400", row.DieselCost.String())
	assert.Equal(t, "9400", row.FinalAmount.String())
	assert.Equal(t, "50000", row.MonthlyCharge.String())
}

func TestAllocationUseCase_OtherAssetsReport(t *testing.T) {
	fx := newAllocationFixture(t)

	fx.assetRepo.Seed(
		&domain.Asset{ID: "t1", Name: "Tipper 1", RegistrationNo: "KA01AB1234", Type: domain.AssetTypeTipper},
		&domain.Asset{ID: "e1", Name: "Excavator 1", RegistrationNo: "KA02CD1111", Type: domain.AssetTypeExcavator},
		&domain.Asset{
			ID: "d1", Name: "Dozer 1", RegistrationNo: "KA03EF9999", Type: "Dozer",
			RatePerShift: decimal.NewFromInt(2500),
		},
	)

	day := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	fx.tripRepo.Seed(
		&domain.TripEvent{AssetID: "t1", Date: day, Material: "Sand", Shift: 1},
		&domain.TripEvent{AssetID: "d1", Date: day, Shift: 2},
	)
	drawOn(fx, "d1", day, 10, 10)

	rows, err := fx.uc.BuildOtherAssetsReport(context.Background(), "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Dozer 1 - KA03EF9999", row.AssetLabel)
	assert.Equal(t, "2", row.Shifts.String())
	assert.Equal(t, "5000", row.Amount.String())
	assert.Equal(t, "100", row.DieselCost.String())
	assert.Equal(t, "5100", row.FinalAmount.String())
	assert.True(t, row.WorkingHours.IsZero())
}

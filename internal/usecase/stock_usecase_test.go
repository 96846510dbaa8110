package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/infrastructure/metrics"
	"github.com/fleetops/fuelcore/internal/usecase"
	"github.com/fleetops/fuelcore/internal/usecase/mocks"
)

func newStockUseCase(repo *mocks.MockStockRepository) *usecase.StockUseCase {
	return usecase.NewStockUseCase(
		mocks.NewMockTransactionManager(),
		repo,
		mocks.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)),
		zerolog.Nop(),
		metrics.New(prometheus.NewRegistry()),
	)
}

func appendEntry(t *testing.T, uc *usecase.StockUseCase, challan int64, quantity, rate int64) *domain.StockEntry {
	t.Helper()

	entry, err := uc.AppendEntry(context.Background(), usecase.AppendEntryInput{
		ChallanNo: challan,
		PartyName: "Bharat Fuels",
		Quantity:  decimal.NewFromInt(quantity),
		Rate:      decimal.NewFromInt(rate),
	})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	return entry
}

func TestStockUseCase_AppendEntry(t *testing.T) {
	repo := mocks.NewMockStockRepository()
	uc := newStockUseCase(repo)

	first := appendEntry(t, uc, 1001, 100, 2)
	if got := first.Amount.String(); got != "200" {
		t.Errorf("first amount = %s, want 200", got)
	}
	if got := first.Stock.String(); got != "100" {
		t.Errorf("first stock = %s, want 100", got)
	}

	second := appendEntry(t, uc, 1002, 50, 3)
	if got := second.Amount.String(); got != "150" {
		t.Errorf("second amount = %s, want 150", got)
	}
	if got := second.Stock.String(); got != "150" {
		t.Errorf("second stock = %s, want 150", got)
	}

	if first.ID >= second.ID {
		t.Errorf("identities not ascending: %d then %d", first.ID, second.ID)
	}
}

func TestStockUseCase_AppendEntry_Validation(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.AppendEntryInput
		errorType error
	}{
		{
			name: "negative quantity",
			input: usecase.AppendEntryInput{
				ChallanNo: 1001,
				Quantity:  decimal.NewFromInt(-5),
				Rate:      decimal.NewFromInt(2),
			},
			errorType: domain.ErrInvalidQuantity,
		},
		{
			name: "negative rate",
			input: usecase.AppendEntryInput{
				ChallanNo: 1001,
				Quantity:  decimal.NewFromInt(5),
				Rate:      decimal.NewFromInt(-2),
			},
			errorType: domain.ErrInvalidRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newStockUseCase(mocks.NewMockStockRepository())

			_, err := uc.AppendEntry(context.Background(), tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Errorf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestStockUseCase_UpdateEntry_RewritesSuffix(t *testing.T) {
	repo := mocks.NewMockStockRepository()
	uc := newStockUseCase(repo)

	first := appendEntry(t, uc, 1001, 100, 2)
	second := appendEntry(t, uc, 1002, 50, 3)

	quantity := decimal.NewFromInt(80)
	updated, err := uc.UpdateEntry(context.Background(), first.ID, usecase.UpdateEntryInput{
		Quantity: &quantity,
	})
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}

	if got := updated.Stock.String(); got != "80" {
		t.Errorf("updated stock = %s, want 80", got)
	}
	if got := updated.Amount.String(); got != "160" {
		t.Errorf("updated amount = %s, want 160", got)
	}

	after, err := uc.GetEntry(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got := after.Stock.String(); got != "130" {
		t.Errorf("successor stock = %s, want 130", got)
	}
	if got := after.Amount.String(); got != "150" {
		t.Errorf("successor amount = %s, want 150", got)
	}
}

func TestStockUseCase_UpdateEntry_NotFound(t *testing.T) {
	uc := newStockUseCase(mocks.NewMockStockRepository())

	quantity := decimal.NewFromInt(10)
	_, err := uc.UpdateEntry(context.Background(), 42, usecase.UpdateEntryInput{Quantity: &quantity})
	if !errors.Is(err, domain.ErrStockEntryNotFound) {
		t.Errorf("expected ErrStockEntryNotFound, got %v", err)
	}
}

func TestStockUseCase_RemoveEntry_RewritesSuffix(t *testing.T) {
	repo := mocks.NewMockStockRepository()
	uc := newStockUseCase(repo)

	appendEntry(t, uc, 1001, 100, 2)
	second := appendEntry(t, uc, 1002, 50, 3)
	third := appendEntry(t, uc, 1003, 25, 4)

	if err := uc.RemoveEntry(context.Background(), second.ID); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}

	entries, err := uc.ListEntries(context.Background())
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Third entry now continues from the first: 100 + 25.
	if entries[1].ID != third.ID {
		t.Errorf("expected entry %d last, got %d", third.ID, entries[1].ID)
	}
	if got := entries[1].Stock.String(); got != "125" {
		t.Errorf("suffix stock = %s, want 125", got)
	}
}

func TestStockUseCase_RemoveEntry_First(t *testing.T) {
	repo := mocks.NewMockStockRepository()
	uc := newStockUseCase(repo)

	first := appendEntry(t, uc, 1001, 100, 2)
	second := appendEntry(t, uc, 1002, 50, 3)

	if err := uc.RemoveEntry(context.Background(), first.ID); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}

	after, err := uc.GetEntry(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	// With no predecessor left, the suffix restarts from zero.
	if got := after.Stock.String(); got != "50" {
		t.Errorf("stock = %s, want 50", got)
	}
}

func TestStockUseCase_RecalculateFrom_Idempotent(t *testing.T) {
	repo := mocks.NewMockStockRepository()
	uc := newStockUseCase(repo)

	first := appendEntry(t, uc, 1001, 100, 2)
	appendEntry(t, uc, 1002, 50, 3)

	before, err := uc.ListEntries(context.Background())
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}

	if err := uc.RecalculateFrom(context.Background(), &mocks.MockTransaction{}, first.ID); err != nil {
		t.Fatalf("RecalculateFrom: %v", err)
	}

	after, err := uc.ListEntries(context.Background())
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}

	for i := range before {
		if !before[i].Stock.Equal(after[i].Stock) || !before[i].Amount.Equal(after[i].Amount) {
			t.Errorf("entry %d changed on clean recalculation: stock %s -> %s, amount %s -> %s",
				before[i].ID, before[i].Stock, after[i].Stock, before[i].Amount, after[i].Amount)
		}
	}
}

func TestStockUseCase_UpdateEntry_RecalculationFailureAborts(t *testing.T) {
	repo := mocks.NewMockStockRepository()
	txMgr := mocks.NewMockTransactionManager()
	uc := usecase.NewStockUseCase(
		txMgr,
		repo,
		usecase.SystemClock(),
		zerolog.Nop(),
		metrics.New(prometheus.NewRegistry()),
	)

	entry, err := uc.AppendEntry(context.Background(), usecase.AppendEntryInput{
		ChallanNo: 1001,
		Quantity:  decimal.NewFromInt(100),
		Rate:      decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	repoErr := errors.New("write failed")
	repo.ListFromForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, id int64) ([]*domain.StockEntry, error) {
		return nil, repoErr
	}

	quantity := decimal.NewFromInt(80)
	_, err = uc.UpdateEntry(context.Background(), entry.ID, usecase.UpdateEntryInput{Quantity: &quantity})
	if !errors.Is(err, domain.ErrRecalculationAborted) {
		t.Fatalf("expected ErrRecalculationAborted, got %v", err)
	}
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}

	last := txMgr.Transactions[len(txMgr.Transactions)-1]
	if last.Committed {
		t.Error("transaction committed despite recalculation failure")
	}
	if !last.RolledBack {
		t.Error("transaction not rolled back")
	}
}

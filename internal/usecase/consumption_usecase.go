package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/infrastructure/metrics"
)

// ConsumptionUseCase records fuel draw-downs. Every draw decrements the open
// batch — the stock entry with the greatest identity at that moment — and
// deleting a draw credits whichever entry is the open batch at deletion
// time. This deliberately preserves the single-bucket accounting of the
// original system: it is not FIFO/LIFO inventory costing, and a delete may
// credit a different batch than the one originally debited. The selection
// lives in openBatch so a per-event linkage can replace it without touching
// callers.
type ConsumptionUseCase struct {
	txManager       TransactionManager
	stockRepo       StockRepository
	consumptionRepo ConsumptionRepository
	recalc          Recalculator
	idGen           IDGenerator
	clock           Clock
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// NewConsumptionUseCase creates a new ConsumptionUseCase.
func NewConsumptionUseCase(
	txManager TransactionManager,
	stockRepo StockRepository,
	consumptionRepo ConsumptionRepository,
	recalc Recalculator,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *ConsumptionUseCase {
	return &ConsumptionUseCase{
		txManager:       txManager,
		stockRepo:       stockRepo,
		consumptionRepo: consumptionRepo,
		recalc:          recalc,
		idGen:           idGen,
		clock:           clock,
		logger:          logger,
		metrics:         m,
	}
}

// RecordConsumptionInput represents input for recording a fuel draw.
type RecordConsumptionInput struct {
	AssetID         string
	Quantity        decimal.Decimal
	Rate            decimal.Decimal
	PreviousReading decimal.Decimal
	Reading         decimal.Decimal
	Site            string
	Manager         string
	RecordedAt      time.Time
}

// RecordConsumption debits the open batch by the drawn quantity, re-runs the
// recalculation pass from that entry, and persists the event — all in one
// transaction. Fails with ErrNoStockAvailable when the ledger is empty. The
// open batch quantity is allowed to go negative; no floor is enforced.
func (uc *ConsumptionUseCase) RecordConsumption(ctx context.Context, input RecordConsumptionInput) (*domain.ConsumptionEvent, error) {
	if err := domain.ValidateQuantities(input.Quantity, input.Rate); err != nil {
		return nil, err
	}

	recordedAt := input.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = uc.clock.Now()
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	batch, err := uc.openBatch(ctx, tx)
	if err != nil {
		return nil, err
	}

	batch.Quantity = batch.Quantity.Sub(input.Quantity)
	if err := uc.stockRepo.Update(ctx, tx, batch); err != nil {
		return nil, err
	}

	if err := uc.recalc.RecalculateFrom(ctx, tx, batch.ID); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRecalculationAborted, err)
	}

	event := &domain.ConsumptionEvent{
		ID:              uc.idGen.Generate(),
		AssetID:         input.AssetID,
		Quantity:        input.Quantity,
		Rate:            input.Rate,
		PreviousReading: input.PreviousReading,
		Reading:         input.Reading,
		Site:            input.Site,
		Manager:         input.Manager,
		RecordedAt:      recordedAt,
	}

	if err := uc.consumptionRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.ConsumptionsRecorded.Inc()
	uc.metrics.ConsumedVolume.Add(input.Quantity.InexactFloat64())
	uc.logger.Info().
		Str("event_id", event.ID).
		Str("asset_id", event.AssetID).
		Str("quantity", event.Quantity.String()).
		Int64("batch_id", batch.ID).
		Msg("consumption recorded")

	return event, nil
}

// DeleteConsumption credits the event's quantity back to the current open
// batch (not necessarily the batch originally debited), re-runs the
// recalculation pass, and deletes the event. When the ledger is empty the
// event is deleted without any restore, mirroring the original system.
func (uc *ConsumptionUseCase) DeleteConsumption(ctx context.Context, id string) error {
	event, err := uc.consumptionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch, err := uc.openBatch(ctx, tx)
	if err != nil && !errors.Is(err, domain.ErrNoStockAvailable) {
		return err
	}

	if batch != nil {
		batch.Quantity = batch.Quantity.Add(event.Quantity)
		if err := uc.stockRepo.Update(ctx, tx, batch); err != nil {
			return err
		}

		if err := uc.recalc.RecalculateFrom(ctx, tx, batch.ID); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrRecalculationAborted, err)
		}
	}

	if err := uc.consumptionRepo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.metrics.ConsumptionsDeleted.Inc()
	uc.logger.Info().Str("event_id", id).Msg("consumption deleted")

	return nil
}

// ListConsumption returns an asset's consumption events within [from, to].
func (uc *ConsumptionUseCase) ListConsumption(ctx context.Context, assetID string, from, to time.Time) ([]*domain.ConsumptionEvent, error) {
	return uc.consumptionRepo.ListByAssetBetween(ctx, nil, assetID, from, to)
}

// openBatch is the open-batch selection policy: the stock entry with the
// maximum identity, locked for update.
func (uc *ConsumptionUseCase) openBatch(ctx context.Context, tx Transaction) (*domain.StockEntry, error) {
	batch, err := uc.stockRepo.GetLastForUpdate(ctx, tx)
	if err != nil {
		if errors.Is(err, domain.ErrStockEntryNotFound) {
			return nil, domain.ErrNoStockAvailable
		}
		return nil, err
	}

	return batch, nil
}

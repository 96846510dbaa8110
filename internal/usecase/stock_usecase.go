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

// StockUseCase owns the fuel purchase ledger and its recalculation engine.
// It is the only component allowed to write the derived stock and amount
// columns; everything else requests mutation through it.
type StockUseCase struct {
	txManager TransactionManager
	stockRepo StockRepository
	clock     Clock
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewStockUseCase creates a new StockUseCase.
func NewStockUseCase(
	txManager TransactionManager,
	stockRepo StockRepository,
	clock Clock,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *StockUseCase {
	return &StockUseCase{
		txManager: txManager,
		stockRepo: stockRepo,
		clock:     clock,
		logger:    logger,
		metrics:   m,
	}
}

// AppendEntryInput represents input for appending a purchase to the ledger.
type AppendEntryInput struct {
	ChallanNo int64
	PartyName string
	Date      time.Time
	Quantity  decimal.Decimal
	Rate      decimal.Decimal
}

// AppendEntry records a fuel purchase at the end of the ledger. The new
// entry's running balance continues from the current last entry.
func (uc *StockUseCase) AppendEntry(ctx context.Context, input AppendEntryInput) (*domain.StockEntry, error) {
	if err := domain.ValidateQuantities(input.Quantity, input.Rate); err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = uc.clock.Now()
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	base := decimal.Zero

	last, err := uc.stockRepo.GetLastForUpdate(ctx, tx)
	if err != nil && !errors.Is(err, domain.ErrStockEntryNotFound) {
		return nil, err
	}
	if last != nil {
		base = last.Stock
	}

	entry := &domain.StockEntry{
		ChallanNo: input.ChallanNo,
		Date:      date,
		PartyName: input.PartyName,
		Quantity:  input.Quantity,
		Rate:      input.Rate,
	}
	entry.Recompute(base)

	if err := uc.stockRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.StockAppends.Inc()
	uc.logger.Info().
		Int64("entry_id", entry.ID).
		Str("quantity", entry.Quantity.String()).
		Str("stock", entry.Stock.String()).
		Msg("stock entry appended")

	return entry, nil
}

// UpdateEntryInput represents a partial edit of a stock entry. Nil fields
// are left untouched.
type UpdateEntryInput struct {
	Quantity *decimal.Decimal
	Rate     *decimal.Decimal
}

// UpdateEntry edits quantity and/or rate of an existing entry and rewrites
// the running balance of the entry and its whole suffix in one transaction.
func (uc *StockUseCase) UpdateEntry(ctx context.Context, id int64, input UpdateEntryInput) (*domain.StockEntry, error) {
	if input.Quantity != nil && input.Quantity.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if input.Rate != nil && input.Rate.IsNegative() {
		return nil, domain.ErrInvalidRate
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.stockRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if input.Quantity != nil {
		entry.Quantity = *input.Quantity
	}
	if input.Rate != nil {
		entry.Rate = *input.Rate
	}

	if err := uc.stockRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.RecalculateFrom(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRecalculationAborted, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.StockUpdates.Inc()
	uc.logger.Info().Int64("entry_id", id).Msg("stock entry updated")

	return uc.stockRepo.GetByID(ctx, id)
}

// RemoveEntry deletes the entry and rewrites the running balance of every
// later entry from the deleted entry's predecessor.
func (uc *StockUseCase) RemoveEntry(ctx context.Context, id int64) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := uc.stockRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
		return err
	}

	base := decimal.Zero

	prev, err := uc.stockRepo.GetPrevious(ctx, tx, id)
	if err != nil && !errors.Is(err, domain.ErrStockEntryNotFound) {
		return err
	}
	if prev != nil {
		base = prev.Stock
	}

	if err := uc.stockRepo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if err := uc.rewriteSuffix(ctx, tx, id, base); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRecalculationAborted, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.metrics.StockDeletes.Inc()
	uc.logger.Info().Int64("entry_id", id).Msg("stock entry removed")

	return nil
}

// RecalculateFrom rewrites amount and stock for the entry at id and every
// entry after it, in ascending identity order. It must run inside the
// caller's transaction; the pass and the mutation that triggered it commit
// or roll back together.
func (uc *StockUseCase) RecalculateFrom(ctx context.Context, tx Transaction, id int64) error {
	base := decimal.Zero

	prev, err := uc.stockRepo.GetPrevious(ctx, tx, id)
	if err != nil && !errors.Is(err, domain.ErrStockEntryNotFound) {
		return err
	}
	if prev != nil {
		base = prev.Stock
	}

	return uc.rewriteSuffix(ctx, tx, id, base)
}

// rewriteSuffix walks entries with identity >= from in ascending order and
// persists the rederived amount and stock of each.
func (uc *StockUseCase) rewriteSuffix(ctx context.Context, tx Transaction, from int64, base decimal.Decimal) error {
	entries, err := uc.stockRepo.ListFromForUpdate(ctx, tx, from)
	if err != nil {
		return err
	}

	running := base
	for _, entry := range entries {
		running = entry.Recompute(running)
		if err := uc.stockRepo.Update(ctx, tx, entry); err != nil {
			return err
		}
		uc.metrics.RecalcRowsWritten.Inc()
	}

	uc.metrics.RecalcPasses.Inc()

	return nil
}

// GetEntry retrieves a single stock entry.
func (uc *StockUseCase) GetEntry(ctx context.Context, id int64) (*domain.StockEntry, error) {
	return uc.stockRepo.GetByID(ctx, id)
}

// ListEntries returns the whole ledger in identity order.
func (uc *StockUseCase) ListEntries(ctx context.Context) ([]*domain.StockEntry, error) {
	return uc.stockRepo.List(ctx)
}

// ListEntriesFrom returns entries with identity >= id in identity order.
func (uc *StockUseCase) ListEntriesFrom(ctx context.Context, id int64) ([]*domain.StockEntry, error) {
	return uc.stockRepo.ListFrom(ctx, id)
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/infrastructure/metrics"
)

// ErrUnknownReportKind is returned for a report kind the assembler does not
// know.
var ErrUnknownReportKind = errors.New("unknown report kind")

// ReportKind selects which monthly report to assemble.
type ReportKind string

const (
	ReportTipper      ReportKind = "tipper"
	ReportExcavator   ReportKind = "excavator"
	ReportOtherAssets ReportKind = "other"
)

// AllocationEngine is the part of the allocation usecase the assembler
// depends on.
type AllocationEngine interface {
	BuildTipperReport(ctx context.Context, month string) ([]domain.AllocationRow, error)
	BuildExcavatorReport(ctx context.Context, month string) ([]domain.ShiftReportRow, error)
	BuildOtherAssetsReport(ctx context.Context, month string) ([]domain.ShiftReportRow, error)
}

// ReportUseCase assembles allocation results into report row sets. It is a
// pass-through collector: rows keep the order the engine emitted and nothing
// is aggregated across assets. Rows are derived data, so they can be cached
// for a bounded TTL; a mutation inside that window serves rows at most
// ttl stale, which billing tolerates.
type ReportUseCase struct {
	engine  AllocationEngine
	cache   Cache
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewReportUseCase creates a new ReportUseCase. A nil cache disables
// caching.
func NewReportUseCase(engine AllocationEngine, cache Cache, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *ReportUseCase {
	return &ReportUseCase{
		engine:  engine,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// TipperReport returns the month's material allocation rows, from cache when
// possible.
func (uc *ReportUseCase) TipperReport(ctx context.Context, month string) ([]domain.AllocationRow, error) {
	var rows []domain.AllocationRow
	if uc.fromCache(ctx, ReportTipper, month, &rows) {
		return rows, nil
	}

	rows, err := uc.engine.BuildTipperReport(ctx, month)
	if err != nil {
		return nil, err
	}

	uc.toCache(ctx, ReportTipper, month, rows)

	return rows, nil
}

// ExcavatorReport returns the month's excavator shift rows.
func (uc *ReportUseCase) ExcavatorReport(ctx context.Context, month string) ([]domain.ShiftReportRow, error) {
	var rows []domain.ShiftReportRow
	if uc.fromCache(ctx, ReportExcavator, month, &rows) {
		return rows, nil
	}

	rows, err := uc.engine.BuildExcavatorReport(ctx, month)
	if err != nil {
		return nil, err
	}

	uc.toCache(ctx, ReportExcavator, month, rows)

	return rows, nil
}

// OtherAssetsReport returns the month's shift rows for the remaining asset
// classes.
func (uc *ReportUseCase) OtherAssetsReport(ctx context.Context, month string) ([]domain.ShiftReportRow, error) {
	var rows []domain.ShiftReportRow
	if uc.fromCache(ctx, ReportOtherAssets, month, &rows) {
		return rows, nil
	}

	rows, err := uc.engine.BuildOtherAssetsReport(ctx, month)
	if err != nil {
		return nil, err
	}

	uc.toCache(ctx, ReportOtherAssets, month, rows)

	return rows, nil
}

// Export pushes the month's rows for kind into sink as an ordered flat
// table. Column order and header text are presentation defaults; the sink
// owns actual rendering.
func (uc *ReportUseCase) Export(ctx context.Context, kind ReportKind, month string, sink RowSink) error {
	switch kind {
	case ReportTipper:
		rows, err := uc.TipperReport(ctx, month)
		if err != nil {
			return err
		}
		return sink.WriteTable(ctx, allocationHeader, allocationCells(rows))
	case ReportExcavator:
		rows, err := uc.ExcavatorReport(ctx, month)
		if err != nil {
			return err
		}
		return sink.WriteTable(ctx, shiftHeader(true), shiftCells(rows, true))
	case ReportOtherAssets:
		rows, err := uc.OtherAssetsReport(ctx, month)
		if err != nil {
			return err
		}
		return sink.WriteTable(ctx, shiftHeader(false), shiftCells(rows, false))
	default:
		return ErrUnknownReportKind
	}
}

var allocationHeader = []string{
	"Asset Name", "Manager", "Material", "Material Quantity", "Rate",
	"Diesel Consumed", "Diesel Cost", "Distance", "Amount", "Final Amount", "Status",
}

func allocationCells(rows []domain.AllocationRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.AssetLabel,
			r.Manager,
			r.Material,
			r.Quantity.String(),
			r.Rate.String(),
			r.DieselQuantity.String(),
			r.DieselCost.String(),
			r.Distance.String(),
			r.Amount.String(),
			r.FinalAmount.String(),
			string(r.Status),
		})
	}
	return out
}

func shiftHeader(withHours bool) []string {
	header := []string{"Asset Name", "Manager"}
	if withHours {
		header = append(header, "Working Hours")
	}
	return append(header,
		"Monthly Charge", "Shift Charge", "No. of Shifts", "Amount",
		"Diesel Quantity", "Diesel Amount", "Final Amount",
	)
}

func shiftCells(rows []domain.ShiftReportRow, withHours bool) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := []string{r.AssetLabel, r.Manager}
		if withHours {
			cells = append(cells, r.WorkingHours.String())
		}
		cells = append(cells,
			r.MonthlyCharge.String(),
			r.ShiftCharge.String(),
			r.Shifts.String(),
			r.Amount.String(),
			r.DieselQuantity.String(),
			r.DieselCost.String(),
			r.FinalAmount.String(),
		)
		out = append(out, cells)
	}
	return out
}

func cacheKey(kind ReportKind, month string) string {
	return "report:" + string(kind) + ":" + month
}

func (uc *ReportUseCase) fromCache(ctx context.Context, kind ReportKind, month string, out any) bool {
	if uc.cache == nil {
		return false
	}

	raw, err := uc.cache.Get(ctx, cacheKey(kind, month))
	if err != nil || raw == "" {
		uc.metrics.CacheMisses.WithLabelValues(string(kind)).Inc()
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		uc.logger.Warn().Err(err).Str("kind", string(kind)).Msg("dropping undecodable cached report")
		_ = uc.cache.Delete(ctx, cacheKey(kind, month))
		return false
	}

	uc.metrics.CacheHits.WithLabelValues(string(kind)).Inc()

	return true
}

func (uc *ReportUseCase) toCache(ctx context.Context, kind ReportKind, month string, rows any) {
	if uc.cache == nil {
		return
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, cacheKey(kind, month), string(raw), uc.ttl); err != nil {
		uc.logger.Warn().Err(err).Str("kind", string(kind)).Msg("report cache write failed")
	}
}

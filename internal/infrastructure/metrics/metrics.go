package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the fuel accounting core.
type Metrics struct {
	// Ledger metrics
	StockAppends      prometheus.Counter
	StockUpdates      prometheus.Counter
	StockDeletes      prometheus.Counter
	RecalcPasses      prometheus.Counter
	RecalcRowsWritten prometheus.Counter

	// Consumption metrics
	ConsumptionsRecorded prometheus.Counter
	ConsumptionsDeleted  prometheus.Counter
	ConsumedVolume       prometheus.Counter

	// Reporting metrics
	ReportBuilds   *prometheus.CounterVec
	ReportDuration *prometheus.HistogramVec
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
}

// New creates and registers all metrics on reg. A nil reg registers on the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		StockAppends: factory.NewCounter(prometheus.CounterOpts{
			Name: "fuelcore_stock_entries_created_total",
			Help: "Total number of stock entries appended to the ledger",
		}),
		StockUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "fuelcore_stock_entries_updated_total",
			Help: "Total number of stock entry edits",
		}),
		StockDeletes: factory.NewCounter(prometheus.CounterOpts{
			Name: "fuelcore_stock_entries_deleted_total",
			Help: "Total number of stock entries removed",
		}),
		RecalcPasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "fuelcore_recalculation_passes_total",
			Help: "Total number of running-balance recalculation passes",
		}),
		RecalcRowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "fuelcore_recalculation_rows_written_total",
			Help: "Total number of ledger rows rewritten by recalculation",
		}),
		ConsumptionsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "fuelcore_consumptions_recorded_total",
			Help: "Total number of consumption events recorded",
		}),
		ConsumptionsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fuelcore_consumptions_deleted_total",
			Help: "Total number of consumption events deleted",
		}),
		ConsumedVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "fuelcore_consumed_volume_liters_total",
			Help: "Total fuel volume drawn from stock",
		}),
		ReportBuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fuelcore_report_builds_total",
			Help: "Total number of monthly report builds by kind",
		}, []string{"kind"}),
		ReportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fuelcore_report_build_duration_seconds",
			Help:    "Monthly report build duration by kind",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fuelcore_report_cache_hits_total",
			Help: "Report cache hits by kind",
		}, []string{"kind"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fuelcore_report_cache_misses_total",
			Help: "Report cache misses by kind",
		}, []string{"kind"}),
	}
}

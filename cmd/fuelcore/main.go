package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fleetops/fuelcore/internal/adapter/export"
	postgresRepo "github.com/fleetops/fuelcore/internal/adapter/repository/postgres"
	redisRepo "github.com/fleetops/fuelcore/internal/adapter/repository/redis"
	"github.com/fleetops/fuelcore/internal/infrastructure/config"
	"github.com/fleetops/fuelcore/internal/infrastructure/logging"
	"github.com/fleetops/fuelcore/internal/infrastructure/metrics"
	"github.com/fleetops/fuelcore/internal/infrastructure/postgres"
	"github.com/fleetops/fuelcore/internal/infrastructure/redis"
	"github.com/fleetops/fuelcore/internal/usecase"
)

const dateFormat = "2006-01-02"

// app holds everything a command needs after wiring.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool
	closer []func()

	stockUC       *usecase.StockUseCase
	consumptionUC *usecase.ConsumptionUseCase
	reportUC      *usecase.ReportUseCase
	loc           *time.Location
}

func (a *app) Close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		a.closer[i]()
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load report timezone: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, pool: pool, loc: loc}
	a.closer = append(a.closer, pool.Close)

	m := metrics.New(nil)

	txManager := postgresRepo.NewTxManager(pool)
	stockRepo := postgresRepo.NewStockRepository(pool)
	consumptionRepo := postgresRepo.NewConsumptionRepository(pool)
	tripRepo := postgresRepo.NewTripRepository(pool)
	assetRepo := postgresRepo.NewAssetRepository(pool)
	assignmentRepo := postgresRepo.NewAssignmentRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	clock := usecase.SystemClock()

	// Report caching is best effort; without Redis the reports are simply
	// rebuilt on every run.
	var cache usecase.Cache
	if client, err := redis.NewClient(ctx, cfg.RedisURL); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, report cache disabled")
	} else {
		a.closer = append(a.closer, func() { _ = client.Close() })
		cache = redisRepo.NewCache(client)
	}

	a.stockUC = usecase.NewStockUseCase(txManager, stockRepo, clock, logger, m)
	a.consumptionUC = usecase.NewConsumptionUseCase(txManager, stockRepo, consumptionRepo, a.stockUC, idGen, clock, logger, m)

	allocationUC := usecase.NewAllocationUseCase(txManager, assetRepo, tripRepo, consumptionRepo, assignmentRepo, loc, logger, m)
	a.reportUC = usecase.NewReportUseCase(allocationUC, cache, cfg.ReportCacheTTL, logger, m)

	return a, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "fuelcore",
		Short:         "Fuel stock ledger and monthly cost allocation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(stockCmd())
	rootCmd.AddCommand(consumeCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat)
			return postgres.RunMigrations(logger, cfg.DatabaseURL, cfg.MigrationsPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat)
			return postgres.RunMigrationsDown(logger, cfg.DatabaseURL, cfg.MigrationsPath)
		},
	})

	return cmd
}

func stockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Fuel purchase ledger operations",
	}

	var (
		challan  int64
		party    string
		date     string
		quantity string
		rate     string
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Append a fuel purchase to the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			input := usecase.AppendEntryInput{
				ChallanNo: challan,
				PartyName: party,
			}
			if input.Quantity, err = decimal.NewFromString(quantity); err != nil {
				return fmt.Errorf("invalid quantity: %w", err)
			}
			if input.Rate, err = decimal.NewFromString(rate); err != nil {
				return fmt.Errorf("invalid rate: %w", err)
			}
			if date != "" {
				if input.Date, err = time.ParseInLocation(dateFormat, date, a.loc); err != nil {
					return fmt.Errorf("invalid date: %w", err)
				}
			}

			entry, err := a.stockUC.AppendEntry(ctx, input)
			if err != nil {
				return err
			}

			fmt.Printf("entry %d: stock %s, amount %s\n", entry.ID, entry.Stock, entry.Amount)
			return nil
		},
	}
	addCmd.Flags().Int64Var(&challan, "challan", 0, "Challan number")
	addCmd.Flags().StringVar(&party, "party", "", "Supplier name")
	addCmd.Flags().StringVar(&date, "date", "", "Purchase date (YYYY-MM-DD), defaults to now")
	addCmd.Flags().StringVar(&quantity, "quantity", "", "Quantity in litres")
	addCmd.Flags().StringVar(&rate, "rate", "", "Rate per litre")
	_ = addCmd.MarkFlagRequired("challan")
	_ = addCmd.MarkFlagRequired("quantity")
	_ = addCmd.MarkFlagRequired("rate")

	var (
		updQuantity string
		updRate     string
	)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a ledger entry and rewrite its suffix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id: %w", err)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var input usecase.UpdateEntryInput
			if updQuantity != "" {
				q, err := decimal.NewFromString(updQuantity)
				if err != nil {
					return fmt.Errorf("invalid quantity: %w", err)
				}
				input.Quantity = &q
			}
			if updRate != "" {
				r, err := decimal.NewFromString(updRate)
				if err != nil {
					return fmt.Errorf("invalid rate: %w", err)
				}
				input.Rate = &r
			}

			entry, err := a.stockUC.UpdateEntry(ctx, id, input)
			if err != nil {
				return err
			}

			fmt.Printf("entry %d: stock %s, amount %s\n", entry.ID, entry.Stock, entry.Amount)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&updQuantity, "quantity", "", "New quantity in litres")
	updateCmd.Flags().StringVar(&updRate, "rate", "", "New rate per litre")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a ledger entry and rewrite its suffix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id: %w", err)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.stockUC.RemoveEntry(ctx, id)
		},
	}

	var fromID int64

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the ledger in identity order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.stockUC.ListEntriesFrom(ctx, fromID)
			if err != nil {
				return err
			}

			for _, e := range entries {
				fmt.Printf("%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.ChallanNo, e.Date.In(a.loc).Format(dateFormat), e.PartyName,
					e.Quantity, e.Rate, e.Amount, e.Stock)
			}
			return nil
		},
	}
	listCmd.Flags().Int64Var(&fromID, "from", 0, "First entry identity to include")

	cmd.AddCommand(addCmd, updateCmd, rmCmd, listCmd)

	return cmd
}

func consumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Fuel consumption operations",
	}

	var (
		assetID     string
		quantity    string
		rate        string
		prevReading string
		reading     string
		site        string
		manager     string
		at          string
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a fuel draw against the open batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			input := usecase.RecordConsumptionInput{
				AssetID: assetID,
				Site:    site,
				Manager: manager,
			}
			if input.Quantity, err = decimal.NewFromString(quantity); err != nil {
				return fmt.Errorf("invalid quantity: %w", err)
			}
			if input.Rate, err = decimal.NewFromString(rate); err != nil {
				return fmt.Errorf("invalid rate: %w", err)
			}
			if prevReading != "" {
				if input.PreviousReading, err = decimal.NewFromString(prevReading); err != nil {
					return fmt.Errorf("invalid previous reading: %w", err)
				}
			}
			if reading != "" {
				if input.Reading, err = decimal.NewFromString(reading); err != nil {
					return fmt.Errorf("invalid reading: %w", err)
				}
			}
			if at != "" {
				if input.RecordedAt, err = time.ParseInLocation(dateFormat, at, a.loc); err != nil {
					return fmt.Errorf("invalid date: %w", err)
				}
			}

			event, err := a.consumptionUC.RecordConsumption(ctx, input)
			if err != nil {
				return err
			}

			fmt.Printf("event %s: %s L for %s\n", event.ID, event.Quantity, event.AssetID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&assetID, "asset", "", "Asset ID")
	addCmd.Flags().StringVar(&quantity, "quantity", "", "Quantity in litres")
	addCmd.Flags().StringVar(&rate, "rate", "", "Rate per litre")
	addCmd.Flags().StringVar(&prevReading, "prev-reading", "", "Odometer or meter reading before")
	addCmd.Flags().StringVar(&reading, "reading", "", "Odometer or meter reading after")
	addCmd.Flags().StringVar(&site, "site", "", "Site name")
	addCmd.Flags().StringVar(&manager, "manager", "", "Manager name")
	addCmd.Flags().StringVar(&at, "date", "", "Draw date (YYYY-MM-DD), defaults to now")
	_ = addCmd.MarkFlagRequired("asset")
	_ = addCmd.MarkFlagRequired("quantity")
	_ = addCmd.MarkFlagRequired("rate")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a fuel draw and credit the open batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.consumptionUC.DeleteConsumption(ctx, args[0])
		},
	}

	cmd.AddCommand(addCmd, rmCmd)

	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly allocation reports",
	}

	var (
		month string
		out   string
	)

	run := func(kind usecase.ReportKind) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return a.reportUC.Export(ctx, kind, month, export.NewCSVSink(w))
		}
	}

	for _, sub := range []struct {
		use   string
		short string
		kind  usecase.ReportKind
	}{
		{"tipper", "Material allocation report for tippers", usecase.ReportTipper},
		{"excavator", "Shift report for excavators", usecase.ReportExcavator},
		{"others", "Shift report for the remaining asset classes", usecase.ReportOtherAssets},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			RunE:  run(sub.kind),
		})
	}

	cmd.PersistentFlags().StringVar(&month, "month", "", "Billing month (YYYY-MM)")
	cmd.PersistentFlags().StringVar(&out, "out", "", "Write CSV to this file instead of stdout")
	_ = cmd.MarkPersistentFlagRequired("month")

	return cmd
}

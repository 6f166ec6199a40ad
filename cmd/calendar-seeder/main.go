package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eventlens/warehouse/internal/config"
	"github.com/eventlens/warehouse/internal/dimension"
	"github.com/eventlens/warehouse/internal/logger"
	"github.com/eventlens/warehouse/internal/schema"
	"github.com/eventlens/warehouse/internal/warehouse/bigquery"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadCalendarSeederConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context cancelled on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "calendar-seeder",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting calendar seeder",
		zap.Int("from_year", cfg.Calendar.FromYear),
		zap.Int("to_year", cfg.Calendar.ToYear),
	)

	// Build the dense calendar
	rows, err := dimension.BuildCalendar(cfg.Calendar.FromYear, cfg.Calendar.ToYear)
	if err != nil {
		logger.Fatal("Failed to build calendar", zap.Error(err))
	}
	if err := dimension.ValidateCalendar(rows); err != nil {
		logger.Fatal("Calendar is not dense", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Built calendar", zap.Int("days", len(rows)))

	// Connect to BigQuery
	client, err := bigquery.New(ctx, bigquery.Config{
		ProjectID:       cfg.Warehouse.ProjectID,
		DatasetID:       cfg.Warehouse.DatasetID,
		Location:        cfg.Warehouse.Location,
		CredentialsFile: cfg.Warehouse.CredentialsFile,
	})
	if err != nil {
		logger.Fatal("Failed to create BigQuery client", zap.Error(err))
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error(err)
		}
	}()

	// Insert in batches
	batchSize := cfg.Calendar.BatchSize
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))

		batch := make([]map[string]any, 0, end-start)
		for _, row := range rows[start:end] {
			batch = append(batch, row.Values())
		}
		if err := client.Insert(ctx, schema.TableDimTime, batch); err != nil {
			logger.Fatal("Failed to insert calendar batch",
				zap.Error(err),
				zap.Int("offset", start),
			)
		}
		logger.DebugCtx(ctx, "Inserted calendar batch",
			zap.Int("offset", start),
			zap.Int("size", end-start),
		)
	}

	logger.InfoCtx(ctx, "Calendar seeded",
		zap.Int("days", len(rows)),
		zap.String("table", schema.TableDimTime),
	)
}

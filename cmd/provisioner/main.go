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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eventlens/warehouse/internal/config"
	"github.com/eventlens/warehouse/internal/logger"
	"github.com/eventlens/warehouse/internal/reconciler"
	"github.com/eventlens/warehouse/internal/schema"
	"github.com/eventlens/warehouse/internal/store"
	storeschema "github.com/eventlens/warehouse/internal/store/schema"
	"github.com/eventlens/warehouse/internal/warehouse/bigquery"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file")
	envPath      = flag.String("env", "config/", "Path to environment files")
	apply        = flag.Bool("apply", false, "Apply the plan instead of only printing it")
	allowDestroy = flag.Bool("allow-destroy", false, "Allow dropping undeclared tables (overrides warehouse.protect_contents)")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadProvisionerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *allowDestroy {
		cfg.Warehouse.ProtectContents = false
	}

	// Create context cancelled on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "provisioner",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting provisioner",
		zap.String("project", cfg.Warehouse.ProjectID),
		zap.String("dataset", cfg.Warehouse.DatasetID),
	)

	// Build and validate the dataset declaration
	spec := schema.Star(schema.StarParams{
		DatasetID:       cfg.Warehouse.DatasetID,
		Location:        cfg.Warehouse.Location,
		ProtectContents: cfg.Warehouse.ProtectContents,
	})
	if err := spec.Validate(); err != nil {
		logger.Fatal("Invalid dataset declaration", zap.Error(err))
	}
	if err := schema.ValidateStarKeys(spec, schema.TableFactEvents); err != nil {
		logger.Fatal("Invalid star keys", zap.Error(err))
	}

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

	// Plan
	r := reconciler.New(client)
	plan, err := r.Plan(ctx, spec)
	if err != nil {
		logger.Fatal("Planning failed", zap.Error(err))
	}

	for _, action := range plan.Actions {
		logger.InfoCtx(ctx, "Planned", zap.String("action", action.String()))
	}
	for _, skipped := range plan.Skipped {
		logger.WarnCtx(ctx, "Skipped", zap.String("change", skipped))
	}
	if plan.Empty() {
		logger.InfoCtx(ctx, "Warehouse already matches the declaration")
	}

	if !*apply {
		logger.InfoCtx(ctx, "Dry run complete, re-run with -apply to execute the plan")
		return
	}

	// Journal the run when a database is configured
	var dataStore store.Store
	var runID string
	if cfg.Database.Host != "" {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.Fatal("Failed to configure connection pool", zap.Error(err))
		}
		if err := store.Migrate(db); err != nil {
			logger.Fatal("Failed to migrate journal tables", zap.Error(err))
		}

		dataStore = store.NewPGStore(db)
		runID, err = dataStore.BeginApplyRun(ctx, plan)
		if err != nil {
			logger.Fatal("Failed to journal apply run", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Journaled apply run", zap.String("run_id", runID))
	}

	// Apply
	applyErr := r.Apply(ctx, spec, plan)

	if dataStore != nil {
		if err := dataStore.FinishApplyRun(ctx, runID, applyErr); err != nil {
			logger.Error(err, zap.String("run_id", runID))
		}
		if applyErr == nil {
			states := make([]storeschema.TableState, 0, len(spec.Tables))
			for _, table := range spec.Tables {
				states = append(states, storeschema.TableState{
					DatasetID:   spec.ID,
					TableName:   table.Name,
					Fingerprint: table.Fingerprint(),
					ApplyRunID:  runID,
				})
			}
			if err := dataStore.UpsertTableStates(ctx, states); err != nil {
				logger.Error(err, zap.String("run_id", runID))
			}
		}
	}

	if applyErr != nil {
		logger.Fatal("Apply failed", zap.Error(applyErr))
	}
	logger.InfoCtx(ctx, "Apply complete",
		zap.Int("actions", len(plan.Actions)),
		zap.Int("skipped", len(plan.Skipped)),
	)
}

// Command catalog-import loads an ingredient workbook into the Postgres catalog.
//
//	catalog-import -file catalog.xlsx -sheet Ingredients -fixed-sheet Fixed
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/config"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/database"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/importer"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
	"github.com/Lixing-Zhang/dog-diet/backend/pkg/logger"
)

type options struct {
	file       string
	sheet      string
	fixedSheet string
	dsn        string
	maxConns   int32
	migrate    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "path to the .xlsx workbook")
	flag.StringVar(&opts.sheet, "sheet", "", "ingredient sheet (default: active sheet)")
	flag.StringVar(&opts.fixedSheet, "fixed-sheet", "", "sheet holding the fixed ingredient set, replaces the stored set when given")
	flag.StringVar(&opts.dsn, "dsn", "", "postgres DSN (default: DATABASE_URL)")
	flag.BoolVar(&opts.migrate, "migrate", true, "apply migrations before importing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if opts.dsn == "" {
		opts.dsn = cfg.Postgres.DSN
	}
	opts.maxConns = cfg.Postgres.MaxConns
	if opts.file == "" || opts.dsn == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.Error("catalog import failed", "file", opts.file, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log *slog.Logger) error {
	// parse everything before touching the database
	profiles, err := parseIngredients(opts.file, opts.sheet)
	if err != nil {
		return fmt.Errorf("parse ingredients: %w", err)
	}
	var fixed []models.FixedContribution
	if opts.fixedSheet != "" {
		if fixed, err = parseFixed(opts.file, opts.fixedSheet); err != nil {
			return fmt.Errorf("parse fixed ingredients: %w", err)
		}
	}

	if opts.migrate {
		if err := database.Migrate(opts.dsn); err != nil {
			return err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := database.Connect(connectCtx, opts.dsn, opts.maxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := repository.NewPostgresIngredientRepository(pool).Upsert(ctx, profiles)
	if err != nil {
		return fmt.Errorf("store ingredients: %w", err)
	}
	log.Info("ingredients imported", "file", opts.file, "sheet", opts.sheet, "count", n)

	if fixed != nil {
		n, err := repository.NewPostgresFixedRepository(pool).ReplaceFixed(ctx, fixed)
		if err != nil {
			return fmt.Errorf("store fixed ingredients: %w", err)
		}
		log.Info("fixed ingredients replaced", "sheet", opts.fixedSheet, "count", n)
	}
	return nil
}

func parseIngredients(path, sheet string) ([]models.IngredientProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return importer.ParseIngredients(f, sheet)
}

func parseFixed(path, sheet string) ([]models.FixedContribution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return importer.ParseFixed(f, sheet)
}

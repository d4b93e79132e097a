package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	ui "comercio/internal/cli"
	"comercio/internal/config"
	"comercio/internal/repository"
	"comercio/internal/service"
)

func main() {
	app := &cli.App{
		Name:  "comercio",
		Usage: "commercial management console: customers, products, purchases, reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "directory holding the JSON collections (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides config)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting console", slog.String("data_dir", cfg.DataDir))

	store := repository.NewStore(cfg.DataDir, cfg.Files, logger)
	tx := repository.NewStoreTx(store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.Load(ctx); err != nil {
		return err
	}

	customersSvc := service.NewCustomerService(store, store, tx, logger)
	catalogSvc := service.NewCatalogService(store, store, tx, logger)
	purchasesSvc := service.NewPurchaseService(store, store, catalogSvc, store, tx, logger)
	reportsSvc := service.NewReportService(store, store, logger)

	m := ui.NewMenu(os.Stdin, os.Stdout, customersSvc, catalogSvc, purchasesSvc, reportsSvc, cfg.ReportSize, logger)
	if err := m.Run(ctx); err != nil {
		logger.Error("session ended with error", slog.Any("error", err))
		return err
	}
	logger.Info("session closed")
	return nil
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

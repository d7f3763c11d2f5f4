package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robalyx/keeper/internal/automod"
	"github.com/robalyx/keeper/internal/bot"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/cooldown"
	"github.com/robalyx/keeper/internal/export"
	"github.com/robalyx/keeper/internal/setup"
	"github.com/robalyx/keeper/internal/setup/config"
	"github.com/robalyx/keeper/internal/setup/telemetry"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// LogDir specifies where log files are stored.
	LogDir = "logs"
)

// ErrNoBackupSinks is returned when a backup is requested but no sink is enabled.
var ErrNoBackupSinks = errors.New("no backup sink configured")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:   "bot",
		Usage:  "Community bot with leveling, economy, moderation and tickets",
		Action: runBot,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Connect to Discord and serve events (default)",
				Action: runBot,
			},
			{
				Name:   "backup",
				Usage:  "Write one backup of the document to every configured sink",
				Action: runBackup,
			},
			{
				Name:  "export",
				Usage: "Export the document to SQLite and CSV files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "exports",
						Usage:   "Base output directory for export files",
					},
					&cli.StringSliceFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   []string{string(export.FormatSQLite)},
						Usage:   "Export formats (sqlite, csv)",
					},
				},
				Action: runExport,
			},
		},
	}

	return app.Run(ctx, os.Args)
}

// runBot serves the gateway together with the background loops until the
// process is interrupted.
func runBot(ctx context.Context, _ *cli.Command) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	token, err := app.Token()
	if err != nil {
		return err
	}

	cfg := &app.Config.Bot
	clk := clock.Real()

	overrides, err := cfg.AutoMod.GuildOverrides()
	if err != nil {
		return err
	}

	retention := automod.NewPolicies(app.Store, cfg.AutoMod.AutoModPolicy, overrides).MaxWindow()
	window := automod.NewWindow(retention, app.Logger)
	gate := cooldown.New(config.Seconds(cfg.Leveling.CooldownSeconds), cfg.Leveling.MaxTrackedMembers, app.Logger)

	discordBot, err := bot.New(bot.Options{
		Token:  token,
		Config: cfg,
		Store:  app.Store,
		Gate:   gate,
		Window: window,
		Clock:  clk,
		Logger: app.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	sinks, err := app.BackupSinks()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := discordBot.Start(ctx); err != nil {
			return fmt.Errorf("failed to start bot: %w", err)
		}

		app.Logger.Info("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")
		<-ctx.Done()

		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		discordBot.Close(closeCtx)

		return nil
	})

	if interval := config.Hours(app.Config.Common.Backup.IntervalHours); interval > 0 && len(sinks) > 0 {
		backup := storage.NewBackup(app.Store, sinks, clk, interval, app.Logger)
		g.Go(func() error { return backup.Run(ctx) })
	}

	if interval := config.Seconds(cfg.Leveling.SweepIntervalSeconds); interval > 0 {
		g.Go(func() error { return gate.Run(ctx, clk, interval) })
	}

	if interval := config.Seconds(cfg.AutoMod.SweepIntervalSeconds); interval > 0 {
		g.Go(func() error { return window.Run(ctx, clk, interval) })
	}

	return g.Wait()
}

func runBackup(ctx context.Context, _ *cli.Command) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceBackup, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	sinks, err := app.BackupSinks()
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		return ErrNoBackupSinks
	}

	backup := storage.NewBackup(app.Store, sinks, clock.Real(), 0, app.Logger)
	if err := backup.RunOnce(ctx); err != nil {
		return fmt.Errorf("failed to back up document: %w", err)
	}

	return nil
}

func runExport(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceExport, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	// Create timestamped output directory
	timestamp := time.Now().UTC().Format("2006-01-02_150405")
	outDir := filepath.Join(c.String("output"), timestamp)

	formats := make([]export.Format, 0, len(c.StringSlice("format")))
	for _, format := range c.StringSlice("format") {
		formats = append(formats, export.Format(format))
	}

	if err := export.New(app.Store, outDir, app.Logger, formats...).ExportAll(); err != nil {
		return fmt.Errorf("failed to export data: %w", err)
	}

	app.Logger.Info("Export completed", zap.String("directory", outDir))

	return nil
}

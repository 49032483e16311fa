package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/tabload/tabload/internal/config"
	"github.com/tabload/tabload/internal/logging"
	"github.com/tabload/tabload/internal/orchestrator"
	"github.com/tabload/tabload/internal/version"
)

func main() {
	app := &cli.App{
		Name:    version.Name,
		Usage:   version.Description,
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress progress bars",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "infer",
				Usage:  "Sample the source file and print the inferred schema",
				Action: runInfer,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Type resolution strategy (widest, narrowest)",
					},
				},
			},
			{
				Name:   "compare",
				Usage:  "Diff the inferred schema against the destination table",
				Action: runCompare,
			},
			{
				Name:   "load",
				Usage:  "Load the source file into the destination table",
				Action: runLoad,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "create-table",
						Usage: "Create the table when it does not exist",
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Clear the table before loading",
					},
					&cli.BoolFlag{
						Name:  "allow-lossy",
						Usage: "Load even when column types differ",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) (*config.Config, *orchestrator.Orchestrator, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if cfg.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		logging.SetLevel(level)
	}
	if cfg.LogFormat != "" {
		logging.SetFormat(cfg.LogFormat)
	}

	orch := orchestrator.New(cfg)
	if c.Bool("quiet") {
		orch.SetQuiet(true)
	}
	return cfg, orch, nil
}

// signalContext cancels on SIGINT/SIGTERM so a partial load stops at a batch
// boundary.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logging.Warn("Interrupt received, stopping")
		cancel()
	}()
	return ctx, cancel
}

func runInfer(c *cli.Context) error {
	cfg, orch, err := setup(c)
	if err != nil {
		return err
	}
	if c.IsSet("strategy") {
		cfg.Inference.Strategy = c.String("strategy")
	}

	ctx, cancel := signalContext()
	defer cancel()

	ts, result, err := orch.Infer(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Sampled %d rows", result.Rows)
	if result.Partial {
		fmt.Print(" (truncated by sample_rows)")
	}
	fmt.Println()
	fmt.Println(ts.String())
	return nil
}

func runCompare(c *cli.Context) error {
	cfg, orch, err := setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fileSchema, diff, err := orch.Compare(ctx)
	if err != nil {
		return err
	}
	orchestrator.ReportDiff(fileSchema, diff)
	if !diff.CanLoadAll() {
		return fmt.Errorf("table %s cannot store this file", cfg.Destination.Table)
	}
	return nil
}

func runLoad(c *cli.Context) error {
	cfg, orch, err := setup(c)
	if err != nil {
		return err
	}
	if c.Bool("create-table") {
		cfg.Load.CreateTable = true
	}
	if c.Bool("clear") {
		cfg.Load.ClearBefore = true
	}
	if c.Bool("allow-lossy") {
		cfg.Load.AllowLossy = true
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := orch.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s: loaded %d rows into %s", res.RunID, res.Rows, cfg.Destination.Table)
	if res.TableCreated {
		fmt.Print(" (table created)")
	}
	if res.TableCleared {
		fmt.Print(" (table cleared)")
	}
	fmt.Println()
	return nil
}

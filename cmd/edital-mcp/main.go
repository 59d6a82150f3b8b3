// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/editalproj/edital-mcp/internal/config"
	"github.com/editalproj/edital-mcp/internal/conformity"
	"github.com/editalproj/edital-mcp/internal/ledger"
	"github.com/editalproj/edital-mcp/internal/logging"
	"github.com/editalproj/edital-mcp/internal/structure"
)

var version = "0.1.0"

// Process exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitGateFailed = 2
	exitUnreadable = 3
	exitValidation = 4
)

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, structure.ErrDocumentUnreadable):
		return exitUnreadable
	case errors.Is(err, structure.ErrInvalidSelection),
		errors.Is(err, structure.ErrSchemaViolation),
		errors.Is(err, ledger.ErrDuplicateAnalysis),
		errors.Is(err, ledger.ErrInvalidEntry),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, config.ErrInvalidConfig):
		return exitValidation
	}
	return exitFailure
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// app is the state shared by every command once configuration is loaded.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	runID  string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "edital-mcp",
		Short: "Procurement document structure extraction and analysis scoring",
		Long: `edital-mcp reads procurement documents (editais) and produces the item
skeleton downstream requirement extraction works from.

It provides:
  - Item table extraction with page-traceable specification lookup
  - Human-in-the-loop item selection
  - Quality scoring of finished analysis tables
  - Mock catalog conformity scoring
  - A ledger of completed analyses
  - An MCP server exposing all of the above over stdio`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(analyzeCmd(a))
	rootCmd.AddCommand(selectCmd(a))
	rootCmd.AddCommand(qualityCmd(a))
	rootCmd.AddCommand(conformityCmd(a))
	rootCmd.AddCommand(ledgerCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	a.cfg = cfg
	a.runID = logging.NewRunID()
	a.logger = logging.WithRunID(logger, a.runID)
	return nil
}

func (a *app) analyzer() *structure.Analyzer {
	locator := structure.NewSpecLocator()
	locator.ScanStart = a.cfg.Locator.ScanStart
	locator.ScanEnd = a.cfg.Locator.ScanEnd
	locator.MarkerThreshold = a.cfg.Locator.MarkerThreshold
	locator.MaxKeywords = a.cfg.Locator.MaxKeywords
	return structure.NewAnalyzer(
		structure.WithItemExtractor(structure.NewItemExtractor(a.cfg.Extractor.MaxScanPages)),
		structure.WithSpecLocator(locator),
		structure.WithLogger(a.logger),
	)
}

func (a *app) conformityScorer() (*conformity.Scorer, error) {
	catalog := conformity.DefaultCatalog()
	if path := a.cfg.Conformity.CatalogFile; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		defer f.Close()
		if catalog, err = conformity.LoadCatalog(f); err != nil {
			return nil, err
		}
	}
	return conformity.NewScorer(catalog, conformity.WithLogger(a.logger)), nil
}

// openLedger returns the configured ledger and a function releasing its store.
func (a *app) openLedger(ctx context.Context) (*ledger.Ledger, func(), error) {
	switch a.cfg.Ledger.Backend {
	case config.BackendPostgres:
		store, err := ledger.OpenPostgres(ctx, a.cfg.Ledger.DSN)
		if err != nil {
			return nil, nil, err
		}
		return ledger.New(store, ledger.WithLogger(a.logger)), store.Close, nil
	default:
		return ledger.New(ledger.NewCSVStore(a.cfg.Ledger.Path), ledger.WithLogger(a.logger)), func() {}, nil
	}
}

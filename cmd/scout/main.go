package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"talentscout/internal/config"
	"talentscout/internal/embedding"
	"talentscout/internal/gateway"
	"talentscout/internal/recovery"
	"talentscout/internal/router"
	"talentscout/internal/sfc"
	"talentscout/internal/specialist"
	"talentscout/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "talentscout - conversational HR candidate search",
	Long: `talentscout is a conversational assistant for HR candidate search.

It routes each message through an explicit conversation graph: intent
analysis, semantic candidate lookup or SFC license verification, then a
single response. All language-model calls run against a local Ollama
server and degrade to deterministic fallbacks when the model misbehaves.

Run without arguments to start the interactive chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// app bundles the wired collaborators a command needs.
type app struct {
	cfg    *config.Config
	store  *store.Store
	router *router.Router
	runner *specialist.Runner
}

// buildApp loads configuration and wires the full assistant. The caller
// owns closing the store.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewOllamaClient(logger)
	pipe := recovery.New(logger, verbose)
	run := specialist.NewRunner(gw, pipe, logger)

	sp := router.Specialists{
		Intent:  specialist.NewIntentClassifier(run, cfg.GenFor(cfg.Specialists.Intent)),
		Name:    specialist.NewNameExtractor(run, cfg.GenFor(cfg.Specialists.NameExtraction)),
		Query:   specialist.NewQueryEnhancer(run, cfg.GenFor(cfg.Specialists.QueryEnhancement)),
		Search:  specialist.NewSearchResponder(run, cfg.GenFor(cfg.Specialists.SearchResponse)),
		Info:    specialist.NewInfoResponder(run, cfg.GenFor(cfg.Specialists.InfoResponse)),
		General: specialist.NewGeneralResponder(run, cfg.GenFor(cfg.Specialists.GeneralResponse)),
		License: specialist.NewLicenseResponder(run, cfg.GenFor(cfg.Specialists.LicenseResponse)),
	}

	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding engine: %w", err)
	}

	st, err := store.New(cfg.Store.DatabasePath, engine, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate store: %w", err)
	}

	checker := sfc.NewWebChecker(cfg.SFCCheckerConfig(), logger)

	return &app{
		cfg:    cfg,
		store:  st,
		router: router.New(sp, st, checker, logger),
		runner: run,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("closing candidate store", zap.Error(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to configuration file")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(licenseCmd)
	rootCmd.AddCommand(valuesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

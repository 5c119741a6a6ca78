package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"talentscout/internal/config"
	"talentscout/internal/gateway"
	"talentscout/internal/recovery"
	"talentscout/internal/sfc"
	"talentscout/internal/specialist"
)

// licenseCmd runs a direct SFC license check
var licenseCmd = &cobra.Command{
	Use:   "license [name]",
	Short: "Check a candidate's SFC license status",
	Long: `Runs the automated SFC public register check for one candidate and
prints the interpreted result. The check drives a headless browser against
the official register; when automation fails the output includes manual
verification steps.

Example:
  scout license "POON Kwok Tung"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLicense,
}

func runLicense(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	name := strings.Join(args, " ")
	checker := sfc.NewWebChecker(cfg.SFCCheckerConfig(), logger)
	out := checker.Check(ctx, name)
	logger.Debug("license check finished",
		zap.String("name", name), zap.Bool("success", out.Success))

	gw := gateway.NewOllamaClient(logger)
	run := specialist.NewRunner(gw, recovery.New(logger, verbose), logger)
	responder := specialist.NewLicenseResponder(run, cfg.GenFor(cfg.Specialists.LicenseResponse))

	fmt.Println(responder.Respond(ctx, out))
	return nil
}

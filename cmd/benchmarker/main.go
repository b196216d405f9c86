package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hamed0406/downtimebench/internal/config"
	"github.com/hamed0406/downtimebench/internal/domain"
	"github.com/hamed0406/downtimebench/internal/httpapi"
	"github.com/hamed0406/downtimebench/internal/logging"
	"github.com/hamed0406/downtimebench/internal/probe"
	"github.com/hamed0406/downtimebench/internal/report"
	"github.com/hamed0406/downtimebench/internal/repo/memory"
	"github.com/hamed0406/downtimebench/internal/scheduler"
	"github.com/hamed0406/downtimebench/internal/targets"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	flags := config.Flags()
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer logger.Sync()

	tgts, err := targets.Load(cfg.TargetsFile)
	if err != nil {
		logger.Error("targets_invalid", zap.String("file", cfg.TargetsFile), zap.Error(err))
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	fmt.Fprintf(stdout, "Loaded %d target(s) from '%s'\n", len(tgts), cfg.TargetsFile)

	store := memory.New()
	mon, err := scheduler.NewMonitor(logger, tgts, probe.NewDispatcher(cfg.CheckTimeout, cfg.UserAgent), store, cfg.CheckInterval, cfg.CheckTimeout)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Running initial health check...")
	outcomes, err := mon.Baseline(ctx)
	_ = report.WriteBaseline(stdout, outcomes)
	if err != nil {
		var be *scheduler.BaselineError
		if errors.As(err, &be) {
			fmt.Fprintln(stderr)
			fmt.Fprintf(stderr, "Error: Some targets failed the initial health check. Fix them before benchmarking: %s\n", report.DownList(be.Down))
			return 1
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "✅ All targets healthy. Starting monitoring (interval: %s, timeout: %s)\n", cfg.CheckInterval, cfg.CheckTimeout)
	fmt.Fprintln(stdout)

	if cfg.StatusAddr != "" {
		api := httpapi.NewServer(logger, mon, store, cfg.StatusKeys)
		go func() {
			if err := api.Serve(ctx, cfg.StatusAddr); err != nil {
				logger.Error("status_server_error", zap.Error(err))
			}
		}()
	}

	mon.OnRound = func(at time.Time, outcomes []domain.CheckOutcome) {
		_ = report.WriteRound(stdout, at, outcomes)
		fmt.Fprintln(stdout, "⏳ Monitoring... Press Ctrl+C to stop and see results.")
	}

	rep, err := mon.Run(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	if err := report.Render(stdout, rep); err != nil {
		logger.Error("report_write_error", zap.Error(err))
		return 1
	}
	return 0
}

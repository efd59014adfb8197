package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/txengine/internal/accounts"
	"github.com/cleared-dev/txengine/internal/config"
	"github.com/cleared-dev/txengine/internal/engine"
	"github.com/cleared-dev/txengine/internal/importer"
	"github.com/cleared-dev/txengine/internal/ledger"
	"github.com/cleared-dev/txengine/internal/logging"
	"github.com/cleared-dev/txengine/internal/observability"
	"github.com/cleared-dev/txengine/internal/rejectlog"
)

func newProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Apply a transactions CSV and print the account snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args[0])
		},
	}
	addProcessFlags(cmd)
	return cmd
}

func addProcessFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Int("workers", 1, "apply records on this many workers, sharded by client")
	fs.Bool("strict", false, "stop at the first rejected record")
	fs.String("rejects", "", "append rejected records to this CSV file")
	fs.String("metrics", "", "write run metrics to this Prometheus textfile")
	fs.StringP("output", "o", "", "write the snapshot to this file instead of stdout")
}

func runProcess(cmd *cobra.Command, path string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Resolve(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	var rejects *rejectlog.Writer
	if cfg.Output.RejectsPath != "" {
		if rejects, err = rejectlog.Open(cfg.Output.RejectsPath); err != nil {
			return err
		}
		defer func() {
			if err := rejects.Close(); err != nil {
				logger.Error("closing reject log", zap.Error(err))
			}
		}()
	}

	metrics := observability.New()
	rejected := 0
	handler := func(res engine.Result) error {
		rejected++
		metrics.ObserveRejected(res)
		logger.Warn("transaction rejected",
			zap.String("stage", res.Stage()),
			zap.Int("line", res.Line),
			zap.String("reason", res.Reason()),
			zap.Error(res.Err))

		if rejects != nil {
			if err := rejects.Write(rejectlog.NewEntry(runID, time.Now(), res)); err != nil {
				return err
			}
		}
		if cfg.Engine.Strict {
			return fmt.Errorf("strict mode: line %d: %w", res.Line, res.Err)
		}
		return nil
	}

	l := ledger.New(ledger.WithLogger(logger))
	start := time.Now()
	err = engine.Run(cmd.Context(), importer.NewReader(f), l, handler,
		engine.WithWorkers(cfg.Engine.Workers),
		engine.WithLogger(logger),
		engine.OnApplied(metrics.ObserveApplied),
	)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}

	snapshot := l.Snapshot()
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := accounts.Save(out, snapshot); err != nil {
			return err
		}
	} else if err := accounts.WriteAccounts(cmd.OutOrStdout(), snapshot); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	elapsed := time.Since(start)
	metrics.ObserveSnapshot(snapshot)
	metrics.ObserveDuration(elapsed)
	if cfg.Output.MetricsPath != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsPath); err != nil {
			return err
		}
	}

	logger.Info("run complete",
		zap.String("file", path),
		zap.Int("accounts", len(snapshot)),
		zap.Int("transactions", l.Registered()),
		zap.Int("rejected", rejected),
		zap.Int("workers", cfg.Engine.Workers),
		zap.Duration("elapsed", elapsed))
	return nil
}

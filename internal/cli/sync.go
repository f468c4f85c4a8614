package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/promessa/internal/jobs"
)

var (
	syncWatch      bool
	syncPurgeAfter time.Duration
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pre-fetch public data into the cache",
	Long: `Sync warms the record cache so later analyses run without waiting on
the public APIs:
- Budget history (SICONFI) for every category with a function code
- Electoral history (TSE) for the candidates listed under sync.candidates

With --watch the sync repeats every sync.interval until interrupted.

Example:
  promessa sync
  promessa sync --watch
  promessa sync --purge-after 720h`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "keep syncing every sync.interval")
	syncCmd.Flags().DurationVar(&syncPurgeAfter, "purge-after", 0, "drop cache entries older than this before syncing (0 keeps all)")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, rt, logger, err := setup()
	if err != nil {
		return err
	}
	defer closeRuntime(rt, logger)

	syncer := jobs.NewSyncer(jobs.SyncerConfig{
		Fiscal:     rt.Fiscal,
		Electoral:  rt.Electoral,
		Cache:      rt.Cache,
		Candidates: cfg.Sync.Candidates,
		Years:      cfg.Sync.Years,
		Workers:    cfg.Concurrency.Workers,
		Logger:     logger,
	})

	if syncPurgeAfter > 0 {
		n, err := syncer.Purge(syncPurgeAfter)
		if err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Purged %d cache entries older than %v\n", n, syncPurgeAfter)
	}

	runOnce := func(ctx context.Context) error {
		result, err := syncer.SyncWithRetry(ctx, cfg.Sync.Retries, cfg.Sync.RetryDelay)
		printSyncResult(result)
		return err
	}

	if !syncWatch {
		return runOnce(ctx)
	}

	scheduler := jobs.NewScheduler(runOnce, logger)
	defer scheduler.Close()

	fmt.Fprintf(os.Stderr, "Syncing every %v (Ctrl+C to stop)\n", cfg.Sync.Interval)
	err = scheduler.Run(ctx, cfg.Sync.Interval)

	st := scheduler.Status()
	logger.Info("sync stopped",
		zap.Int("successes", st.SuccessCount),
		zap.Int("failures", st.FailureCount),
		zap.Time("last_sync", st.LastSync))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printSyncResult(r jobs.SyncResult) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Categories:  %d\n", r.Categories)
	fmt.Fprintf(os.Stderr, "  Candidates:  %d\n", r.Candidates)
	fmt.Fprintf(os.Stderr, "  Records:     %d (%d degraded)\n", r.Records, r.Degraded)
	fmt.Fprintf(os.Stderr, "  Failed:      %d\n", r.Failed)
	fmt.Fprintf(os.Stderr, "  Took:        %v\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "\n")
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/pipeline"
	"github.com/ppiankov/promessa/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// author, region and skipCoherence are defined in analyze.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many statements from a file in parallel",
	Long: `Batch analyzes statements concurrently:
- Read statements from the input file, one per line
- A line may name its author: "Fulano de Tal | Vou construir 1000 escolas"
- Blank lines and lines starting with # are skipped; repeats are analyzed once
- Write one JSON report per statement plus an index.json

Example:
  promessa batch discursos.txt
  promessa batch discursos.txt --concurrency 8 --output-dir ./relatorios
  promessa batch discursos.txt --author "Fulano de Tal" --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./promessa-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 15*time.Minute, "total timeout for batch processing")

	// Inherit flags from analyze command
	batchCmd.Flags().StringVarP(&author, "author", "a", "", "default author for lines without one")
	batchCmd.Flags().StringVarP(&region, "region", "r", "", "author's state (UF)")
	batchCmd.Flags().BoolVar(&skipCoherence, "skip-coherence", false, "skip the voting record comparison")
}

type batchIndexEntry struct {
	Line   int     `json:"line"`
	Author string  `json:"author,omitempty"`
	Report string  `json:"report,omitempty"`
	Score  float64 `json:"score,omitempty"`
	Risk   string  `json:"risk,omitempty"`
	Error  string  `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, rt, logger, err := setup()
	if err != nil {
		return err
	}
	defer closeRuntime(rt, logger)

	if concurrency <= 0 {
		concurrency = cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Promessa Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "  LLM:          %s\n", providerList(rt.Providers))
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tracker := worker.NewStatusTracker()
	defer tracker.Close()

	analyze := func(ctx context.Context, s worker.Statement) (*model.AnalysisReport, error) {
		a := s.Author
		if a == "" {
			a = author
		}
		return rt.Engine.Analyze(ctx, pipeline.Request{
			Text:          s.Text,
			Author:        a,
			Region:        strings.ToUpper(region),
			SkipCoherence: skipCoherence,
		})
	}
	processor := worker.NewBatchProcessor(analyze, concurrency, tracker)

	stopProgress := make(chan struct{})
	progressDone := make(chan struct{})
	go reportProgress(tracker, stopProgress, progressDone)

	fmt.Fprintf(os.Stderr, "⚙️  Processing statements with %d workers...\n\n", concurrency)
	results, err := processor.ProcessFile(ctx, file)
	close(stopProgress)
	<-progressDone
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	// Process results
	renderer := pipeline.NewRenderer(cfg.Output.Pretty)
	index := make([]batchIndexEntry, 0, len(results))
	successCount := 0
	failureCount := 0

	for _, result := range results {
		entry := batchIndexEntry{Line: result.Statement.Line, Author: result.Statement.Author}
		if result.Error != nil {
			failureCount++
			entry.Error = result.Error.Error()
			index = append(index, entry)
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", result.Statement.Line, result.Error)
			continue
		}

		name := fmt.Sprintf("%04d-%s.json", result.Statement.Line, result.Report.ID[:8])
		if err := renderer.RenderJSON(result.Report, filepath.Join(outputDir, name)); err != nil {
			failureCount++
			entry.Error = err.Error()
			index = append(index, entry)
			fmt.Fprintf(os.Stderr, "✗ line %d: failed to write JSON: %v\n", result.Statement.Line, err)
			continue
		}

		successCount++
		entry.Report = name
		entry.Score = result.Report.Viability.Score
		entry.Risk = string(result.Report.Viability.RiskLevel)
		index = append(index, entry)
		fmt.Fprintf(os.Stderr, "✓ line %d (%d claims, viability %.2f %s)\n", result.Statement.Line,
			len(result.Report.Claims), result.Report.Viability.Score, result.Report.Viability.RiskLevel)
	}

	if err := renderer.RenderJSON(index, filepath.Join(outputDir, "index.json")); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d statements\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// reportProgress prints tracker snapshots every few seconds until stop closes
func reportProgress(tracker *worker.StatusTracker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p := tracker.Snapshot()
			if p.Total == 0 {
				continue
			}
			fmt.Fprintf(os.Stderr, "  … %d/%d done, %d in flight, %d failed\n",
				p.Completed+p.Failed, p.Total, p.InFlight, p.Failed)
		}
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/pipeline"
)

var (
	outJSON       string
	inputFile     string
	inputURL      string
	author        string
	region        string
	category      string
	skipCoherence bool
	timeout       time.Duration
	quiet         bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze a political statement",
	Long: `Analyze extracts the promises in a statement and reports:
- Viability score, risk tier and confidence, with per-factor signals
- Budget trajectory of each promised area and contradictions with it
- Votes by the author that contradict the promises (Câmara/Senado)

The statement is read from the arguments, a file (--file, "-" for stdin)
or a transcript page (--url).

Example:
  promessa analyze "Vou construir 1000 escolas em todo o país" --author "Fulano de Tal" --region SP
  promessa analyze --file discurso.txt --json report.json
  promessa analyze --url https://example.org/discurso --no-llm`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read the statement from a file (\"-\" for stdin)")
	analyzeCmd.Flags().StringVar(&inputURL, "url", "", "fetch the statement from a transcript page")

	// Context flags
	analyzeCmd.Flags().StringVarP(&author, "author", "a", "", "author of the statement (enables author track and coherence)")
	analyzeCmd.Flags().StringVarP(&region, "region", "r", "", "author's state (UF), used for the electoral lookup")
	analyzeCmd.Flags().StringVarP(&category, "category", "c", "", "category hint (e.g. HEALTH); inferred from claims when empty")
	analyzeCmd.Flags().BoolVar(&skipCoherence, "skip-coherence", false, "skip the voting record comparison")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (\"-\" for stdout)")
	analyzeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the summary to stderr")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, rt, logger, err := setup()
	if err != nil {
		return err
	}
	defer closeRuntime(rt, logger)

	text, sourceURL, err := readStatement(ctx, rt, args)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Analyzing %d characters...\n", len(text))
	}

	report, err := rt.Engine.Analyze(ctx, pipeline.Request{
		Text:          text,
		Author:        author,
		Region:        strings.ToUpper(region),
		Category:      parseCategoryFlag(category),
		SourceURL:     sourceURL,
		SkipCoherence: skipCoherence,
	})
	if errors.Is(err, pipeline.ErrEmptyInput) {
		return fmt.Errorf("nothing to analyze: the statement is empty")
	}
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.Pretty)
	if err := renderer.RenderJSON(report, outJSON); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if !quiet {
		renderer.RenderSummary(os.Stderr, report)
	}
	if cfg.Output.Verbose && outJSON != "-" && outJSON != "" {
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
	}
	return nil
}

// readStatement resolves the statement from --url, --file or the arguments
func readStatement(ctx context.Context, rt *pipeline.Runtime, args []string) (string, string, error) {
	switch {
	case inputURL != "":
		result, err := rt.Fetcher.FetchWithRetry(ctx, inputURL)
		if err != nil {
			return "", "", fmt.Errorf("fetch %s: %w", inputURL, err)
		}
		return result.Text, result.FinalURL, nil

	case inputFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "", nil

	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", inputFile, err)
		}
		return string(data), "", nil

	case len(args) > 0:
		return strings.Join(args, " "), "", nil

	default:
		return "", "", fmt.Errorf("no statement given: pass text, --file or --url")
	}
}

func parseCategoryFlag(s string) model.Category {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return model.ParseCategory(s)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/promessa/internal/pipeline"
)

// coherenceCmd represents the coherence command
var coherenceCmd = &cobra.Command{
	Use:   "coherence <name> <promise>...",
	Short: "Compare promises with a politician's voting record",
	Long: `Coherence looks up the politician's recorded votes in the Câmara and
the Senado and lists votes that contradict the given promises.

Each promise is a separate argument.

Example:
  promessa coherence "Fulano de Tal" "Vou aumentar o investimento em saúde pública"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCoherence,
}

func init() {
	rootCmd.AddCommand(coherenceCmd)

	coherenceCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall timeout")
}

func runCoherence(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, rt, logger, err := setup()
	if err != nil {
		return err
	}
	defer closeRuntime(rt, logger)

	report := rt.Engine.Coherence().AnalyzeCoherence(ctx, args[0], args[1:])
	if err := pipeline.NewRenderer(cfg.Output.Pretty).WriteJSON(os.Stdout, report); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\nCoherence: %.0f/100 (%s)\n", report.CoherenceScore, report.Summary)
	return nil
}

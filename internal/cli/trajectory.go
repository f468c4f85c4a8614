package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/promessa/internal/coherence"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/pipeline"
)

var (
	trajectoryClaim    string
	trajectoryEstimate float64
)

// trajectoryCmd represents the trajectory command
var trajectoryCmd = &cobra.Command{
	Use:   "trajectory <category>",
	Short: "Show the budget trajectory of a category",
	Long: `Trajectory fetches five years of budgeted federal spending for a
category and reports its trend, mean, deviation and whether the last year
is an anomaly.

With --claim the promise is also checked against the trend.

Categories: INFRASTRUCTURE, EDUCATION, HEALTH, EMPLOYMENT, SECURITY,
ENVIRONMENT, SOCIAL, ECONOMY, AGRICULTURE, CULTURE, TRANSPORT

Example:
  promessa trajectory HEALTH
  promessa trajectory EDUCATION --claim "Vamos cortar gastos com educação"
  promessa trajectory INFRASTRUCTURE --claim "Vou construir 500 km de ferrovias" --estimate 50000000000`,
	Args: cobra.ExactArgs(1),
	RunE: runTrajectory,
}

func init() {
	rootCmd.AddCommand(trajectoryCmd)

	trajectoryCmd.Flags().StringVar(&trajectoryClaim, "claim", "", "promise text to check against the trend")
	trajectoryCmd.Flags().Float64Var(&trajectoryEstimate, "estimate", 0, "estimated cost of the promise in R$")
	trajectoryCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall timeout")
}

type trajectoryOutput struct {
	Analysis    model.TrajectoryAnalysis `json:"analysis"`
	Description string                   `json:"description"`
	Check       *model.TrajectoryCheck   `json:"check,omitempty"`
}

func runTrajectory(cmd *cobra.Command, args []string) error {
	cat := model.ParseCategory(args[0])
	if cat == model.CategoryGeneral && !strings.EqualFold(args[0], string(model.CategoryGeneral)) {
		return fmt.Errorf("unknown category %q", args[0])
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, rt, logger, err := setup()
	if err != nil {
		return err
	}
	defer closeRuntime(rt, logger)

	traj := rt.Engine.Trajectory()
	analysis := traj.AnalyzeTrajectory(ctx, cat)
	out := trajectoryOutput{
		Analysis:    analysis,
		Description: coherence.Describe(analysis),
	}
	if trajectoryClaim != "" {
		check := coherence.Check(analysis, trajectoryClaim, trajectoryEstimate)
		out.Check = &check
	}

	if err := pipeline.NewRenderer(cfg.Output.Pretty).WriteJSON(os.Stdout, out); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n%s: %s\n", cat, out.Description)
	if out.Check != nil && out.Check.IsContradictory {
		fmt.Fprintf(os.Stderr, "⚠️  [%s] %s\n", out.Check.Severity, out.Check.Reason)
	}
	return nil
}

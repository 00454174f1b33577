package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/aprx/internal/config"
	"github.com/papapumpkin/aprx/internal/rubric"
	"github.com/papapumpkin/aprx/internal/ui"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline <reference.aprx>",
	Short: "Capture a reference project as a grading baseline",
	Long: `Reads a reference project and writes a baseline file describing it: which
map must be imported with which layers, the style, symbol and labels of each
layer, and the view of the layout's map frame. Edit the file to adjust points
and remove criteria before grading.`,
	Args: cobra.ExactArgs(1),
	RunE: runBaseline,
}

func init() {
	baselineCmd.Flags().StringP("output", "o", "", "baseline file to write (default from config)")
	baselineCmd.Flags().String("map", "", "name prefix of the map to capture (default first map)")
	baselineCmd.Flags().Float64("points", 1, "points per criterion")
	baselineCmd.Flags().Int("min-layers", 0, "layers a submission must import (default min(4, layers))")
	baselineCmd.Flags().String("title", "", "baseline title")
	rootCmd.AddCommand(baselineCmd)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	printer := ui.New(cmd.ErrOrStderr())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = cfg.Baseline
	}
	opts := rubric.CaptureOptions{Tolerance: cfg.Tolerance}
	opts.MapPrefix, _ = cmd.Flags().GetString("map")
	opts.Points, _ = cmd.Flags().GetFloat64("points")
	opts.MinLayers, _ = cmd.Flags().GetInt("min-layers")
	opts.Title, _ = cmd.Flags().GetString("title")

	p, err := openProject(cmd, cfg, args[0])
	if err != nil {
		return err
	}
	defer p.Close()

	b, err := rubric.FromProject(p, opts)
	if err != nil {
		return err
	}
	if errs := b.Validate(); len(errs) > 0 {
		printer.ValidateResult(out, len(b.Criteria), errs)
		return fmt.Errorf("captured baseline is invalid: %d error(s)", len(errs))
	}
	if err := rubric.Write(out, b); err != nil {
		return err
	}
	printer.Success(fmt.Sprintf("wrote %s: %d criteria, %g points", out, len(b.Criteria), b.MaxScore()))
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/aprx/internal/config"
	"github.com/papapumpkin/aprx/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a baseline file for errors",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().String("baseline", "", "baseline file (default from config)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	printer := ui.New(cmd.ErrOrStderr())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("baseline"); v != "" {
		cfg.Baseline = v
	}

	b, err := loadBaseline(printer, cfg.Baseline)
	if err != nil {
		return err
	}
	printer.ValidateResult(cfg.Baseline, len(b.Criteria), nil)
	return nil
}

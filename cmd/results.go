package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/aprx/internal/config"
	"github.com/papapumpkin/aprx/internal/store"
	"github.com/papapumpkin/aprx/internal/ui"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show a recorded grading run from the results database",
	Args:  cobra.NoArgs,
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().String("run", "", "run id (default most recent run)")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ctx := cmd.Context()

	st, err := store.Open(ctx, cfg.ResultsDB)
	if err != nil {
		return err
	}
	defer st.Close()

	var run store.Run
	if id, _ := cmd.Flags().GetString("run"); id != "" {
		run, err = st.Run(ctx, id)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if err != nil {
		return err
	}
	outcomes, err := st.Outcomes(ctx, run.ID)
	if err != nil {
		return err
	}
	ui.New(cmd.OutOrStdout()).Run(run, outcomes)
	return nil
}

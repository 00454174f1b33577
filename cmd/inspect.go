package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/aprx/internal/config"
	"github.com/papapumpkin/aprx/internal/project"
	"github.com/papapumpkin/aprx/internal/ui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive.aprx>",
	Short: "List the entries, catalog, maps and layouts of a project archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	p, err := openProject(cmd, cfg, args[0])
	if err != nil {
		return err
	}
	defer p.Close()

	return ui.New(cmd.OutOrStdout()).Project(p)
}

// openProject opens path with the configured work directory, logging the
// session lifecycle when verbose.
func openProject(cmd *cobra.Command, cfg config.Config, path string) (*project.Project, error) {
	opts := []project.Option{project.WithWorkDir(cfg.WorkDir)}
	if cfg.Verbose {
		opts = append(opts, project.WithLog(cmd.ErrOrStderr()))
	}
	return project.Open(path, opts...)
}

package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"preupgrade/internal/reportview"
	"preupgrade/internal/tui"
)

func newTUICmd(root *rootOptions) *cobra.Command {
	var (
		job     int64
		perPage int
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse a job run's preupgrade report interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, cfg, err := root.connect()
			if err != nil {
				return err
			}
			if perPage == 0 {
				perPage = cfg.PerPage
			}

			ctx := cmd.Context()
			run, err := c.JobRun(ctx, job)
			if err != nil {
				return fmt.Errorf("job run %d: %w", job, err)
			}

			m := tui.New(ctx, c, run, reportview.WithPerPage(perPage))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().Int64Var(&job, "job", 0, "job invocation id")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "initial entries per page")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"preupgrade/internal/client"
	"preupgrade/internal/config"
)

type rootOptions struct {
	url   string
	debug bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "preupgrade",
		Short: "Browse Leapp preupgrade reports of job runs",
		Long: `preupgrade talks to a preupgrade report server. It lists the findings of
the report a job run produced, opens them in an interactive viewer and uploads
leapp-report.json files.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.url, "url", "", "report server URL (overrides the config file)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging on stderr")

	cmd.AddCommand(
		newShowCmd(opts),
		newTUICmd(opts),
		newImportCmd(opts),
		newImportStatusCmd(opts),
		newRemediationsCmd(opts),
		newConfigCmd(),
	)
	return cmd
}

// connect builds an API client from the config file, the environment and --url.
func (o *rootOptions) connect() (*client.Client, *config.Client, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.url != "" {
		cfg.URL = o.url
	}
	var opts []client.Option
	if cfg.User != "" {
		opts = append(opts, client.WithBasicAuth(cfg.User, cfg.Password))
	}
	c, err := client.New(cfg.URL, opts...)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("using report server", "url", cfg.URL, "user", cfg.User)
	return c, cfg, nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return id, nil
}

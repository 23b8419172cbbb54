package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"preupgrade/internal/client"
	"preupgrade/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the client configuration",
	}
	cmd.AddCommand(newConfigSetCmd(), newConfigShowCmd())
	return cmd
}

func newConfigSetCmd() *cobra.Command {
	var set config.Client
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the server URL and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.ReadClient()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("url") {
				if _, err := client.New(set.URL); err != nil {
					return err
				}
				cfg.URL = set.URL
			}
			if flags.Changed("user") {
				cfg.User = set.User
			}
			if flags.Changed("password") {
				cfg.Password = set.Password
			}
			if flags.Changed("per-page") {
				if set.PerPage < 0 {
					return fmt.Errorf("invalid --per-page %d", set.PerPage)
				}
				cfg.PerPage = set.PerPage
			}
			if err := config.SaveClient(cfg); err != nil {
				return err
			}
			path, _ := config.ClientConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&set.URL, "url", "", "report server URL")
	f.StringVar(&set.User, "user", "", "basic auth user")
	f.StringVar(&set.Password, "password", "", "basic auth password")
	f.IntVar(&set.PerPage, "per-page", 0, "default entries per page")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if cfg.Password != "" {
				cfg.Password = "********"
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nodegraph/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from := a.cfgFrom
			if from == "" {
				from = "defaults"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Config: "+from))
			fmt.Fprintln(out, a.cfg.Summary())
			fmt.Fprintln(out, mutedStyle.Render("searched:"))
			for _, p := range config.SearchPaths() {
				fmt.Fprintln(out, mutedStyle.Render("  "+p))
			}
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

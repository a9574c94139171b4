package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jbonatakis/reqmatrix/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show effective settings and where each comes from",
		Args:  exactArgs(0, "no arguments (or a subcommand)"),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := config.ResolveSettings(a.root)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tSOURCE\tDESCRIPTION")
			for _, option := range config.OptionRegistry() {
				applied := res.Applied[option.KeyPath]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", option.KeyPath, applied.Value.Display(), applied.Source, option.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, lw := range res.LayerWarnings {
				fmt.Fprintf(a.out, "warning: %s config ignored (%s)\n", lw.Source, lw.Kind)
			}
			for _, ow := range res.OptionWarnings {
				switch ow.Kind {
				case config.OptionWarningOutOfRange:
					fmt.Fprintf(a.out, "warning: %s %s out of range, using %d\n", ow.Source, ow.KeyPath, *ow.ClampedInt)
				default:
					fmt.Fprintf(a.out, "warning: %s %s has an invalid value, ignored\n", ow.Source, ow.KeyPath)
				}
			}
			return nil
		},
	}

	var global bool
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config key in the project (or --global) config file",
		Args:  exactArgs(2, "exactly 2 arguments: <key> <value>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configPath(global)
			if err != nil {
				return err
			}
			if err := config.SetConfigValue(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "set %s in %s\n", args[0], path)
			return nil
		},
	}
	set.Flags().BoolVar(&global, "global", false, "write ~/.reqmatrix/config.json instead of the project config")

	var unsetGlobal bool
	unset := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a config key from the project (or --global) config file",
		Args:  exactArgs(1, "exactly 1 argument: <key>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configPath(unsetGlobal)
			if err != nil {
				return err
			}
			if err := config.SetConfigValue(path, args[0], ""); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "unset %s in %s\n", args[0], path)
			return nil
		},
	}
	unset.Flags().BoolVar(&unsetGlobal, "global", false, "edit ~/.reqmatrix/config.json instead of the project config")

	cmd.AddCommand(set, unset)
	return cmd
}

func (a *app) configPath(global bool) (string, error) {
	if !global {
		return config.ProjectConfigPath(a.root), nil
	}
	path, ok := config.GlobalConfigPath()
	if !ok {
		return "", errors.New("no home directory for the global config")
	}
	return path, nil
}

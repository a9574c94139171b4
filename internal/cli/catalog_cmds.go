package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jbonatakis/reqmatrix/internal/catalog"
	"github.com/jbonatakis/reqmatrix/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a project config and an example catalog if none exist",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initProjectConfig(); err != nil {
				return err
			}
			path := a.catalogPath()

			_, err := os.Stat(path)
			if err == nil {
				fmt.Fprintf(a.out, "catalog already exists: %s\n", path)
				return nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat catalog file: %w", err)
			}

			if err := catalog.Save(path, catalog.Example()); err != nil {
				return fmt.Errorf("write catalog file: %w", err)
			}
			loggerFromContext(cmd.Context()).Debug("example catalog written", "path", path)
			fmt.Fprintf(a.out, "created catalog: %s\n", path)
			return nil
		},
	}
}

// initProjectConfig pins the catalog path and store backend in a new project
// config. An existing config is left alone.
func (a *app) initProjectConfig() error {
	path := config.ProjectConfigPath(a.root)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	resolved := config.ResolvedOptionValues(a.cfg)
	values := map[string]config.RawOptionValue{}
	for _, key := range []string{"catalog.path", "store.backend"} {
		values[key] = resolved[key]
	}
	if err := config.SaveConfigValues(path, values); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created config: %s\n", path)
	return nil
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog for structural problems",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadCatalog()
			if err != nil {
				return err
			}

			errs := c.Validate()
			h := c.Hierarchy()
			if h.Skipped > 0 {
				loggerFromContext(cmd.Context()).Warn("malformed location rows would be skipped", "count", h.Skipped)
			}
			if len(errs) == 0 && h.Err == "" {
				fmt.Fprintln(a.out, "OK")
				return nil
			}

			fmt.Fprintf(a.out, "invalid catalog: %s\n", a.catalogPath())
			for _, e := range errs {
				fmt.Fprintf(a.out, "- %s: %s\n", e.Path, e.Message)
			}
			if h.Err != "" {
				fmt.Fprintf(a.out, "- %s\n", h.Err)
				for _, failure := range h.Failures {
					fmt.Fprintf(a.out, "  %v\n", failure)
				}
			}
			return errors.New("validation failed")
		},
	}
}

func newServicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the catalog's services",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.out, 0, 8, 2, ' ', 0)
			for _, s := range c.Services {
				fmt.Fprintf(w, "%s\t%s\t%d requirements\n", s.ID, s.Name, len(c.RequirementsFor(s.ID)))
			}
			return w.Flush()
		},
	}
}

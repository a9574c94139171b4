package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbonatakis/reqmatrix/internal/location"
	"github.com/jbonatakis/reqmatrix/internal/matrix"
	"github.com/jbonatakis/reqmatrix/internal/tui"
)

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <service> <location> <requirement> on|off",
		Short: "Select or clear a requirement at a location and save",
		Long: `Selecting a location selects the requirement for its whole subtree and for
every ancestor whose children are then all selected. Clearing it clears the
subtree and every ancestor.`,
		Args: exactArgs(4, "exactly 4 arguments: <service> <location> <requirement> on|off"),
		RunE: func(cmd *cobra.Command, args []string) error {
			checked, err := parseOnOff(args[3])
			if err != nil {
				return err
			}
			s, committed, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.store.Close()

			if err := checkLocation(s.hierarchy, args[1]); err != nil {
				return err
			}
			if !s.hasRequirement(args[2]) {
				return fmt.Errorf("service %q has no requirement %q", s.service.ID, args[2])
			}

			ctrl := a.standaloneController(s, committed)
			written, err := ctrl.HandleRequirementChange(args[1], args[2], checked)
			if err != nil {
				return err
			}
			return a.saveAndReport(cmd, ctrl, written)
		},
	}
}

func newAvailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "avail <service> <location> on|off",
		Short: "Mark a location (and its subtree) available or unavailable and save",
		Args:  exactArgs(3, "exactly 3 arguments: <service> <location> on|off"),
		RunE: func(cmd *cobra.Command, args []string) error {
			checked, err := parseOnOff(args[2])
			if err != nil {
				return err
			}
			s, committed, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.store.Close()

			if err := checkLocation(s.hierarchy, args[1]); err != nil {
				return err
			}

			ctrl := a.standaloneController(s, committed)
			written, err := ctrl.HandleAvailabilityChange(args[1], checked)
			if err != nil {
				return err
			}
			return a.saveAndReport(cmd, ctrl, written)
		},
	}
}

func checkLocation(h *location.Hierarchy, id string) error {
	if id == location.RootID || h.Contains(id) {
		return nil
	}
	return fmt.Errorf("unknown location %q", id)
}

func (a *app) saveAndReport(cmd *cobra.Command, ctrl *matrix.Controller, written []string) error {
	logger := loggerFromContext(cmd.Context())
	changes := ctrl.Changes()
	if changes.Empty() {
		fmt.Fprintln(a.out, "no changes")
		return nil
	}
	for _, key := range written {
		logger.Debug("propagated", "key", key)
	}
	if _, err := ctrl.Save(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %s: %d selected, %d cleared, %d available, %d unavailable\n",
		ctrl.ServiceID(),
		len(changes.Selected), len(changes.Deselected),
		len(changes.AvailabilityOn), len(changes.AvailabilityOff))
	return nil
}

func newMigrateKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-keys <service>",
		Short: "Rewrite legacy location-requirement keys in the store",
		Args:  exactArgs(1, "exactly 1 argument: <service>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, committed, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.store.Close()

			m := s.migration
			for _, key := range m.Unresolved {
				fmt.Fprintf(a.out, "unresolved: %s\n", key)
			}
			for _, key := range m.Shadowed {
				fmt.Fprintf(a.out, "dropped (canonical key present): %s\n", key)
			}
			if !m.Changed() {
				fmt.Fprintln(a.out, "no legacy keys")
				return nil
			}
			if _, err := s.store.Save(cmd.Context(), s.service.ID, committed); err != nil {
				return fmt.Errorf("save %s: %w", s.service.ID, err)
			}
			fmt.Fprintf(a.out, "migrated %d keys (%d ambiguous, %d dropped)\n", m.Migrated, len(m.Ambiguous), len(m.Shadowed))
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <service>",
		Short: "Open the interactive matrix editor",
		Args:  exactArgs(1, "exactly 1 argument: <service>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, committed, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.store.Close()

			ctrl := a.standaloneController(s, committed)
			return tui.Start(cmd.Context(), ctrl, tui.Options{
				ServiceName:     s.service.Name,
				Requirements:    s.requirements,
				PageSize:        a.cfg.TUI.PageSize,
				ExpandCountries: a.cfg.TUI.ExpandCountries,
			})
		},
	}
}

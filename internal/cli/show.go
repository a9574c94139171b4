package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jbonatakis/reqmatrix/internal/location"
	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		expandAll    bool
		depth        int
		requirements []string
	)
	cmd := &cobra.Command{
		Use:   "show <service>",
		Short: "Print a service's matrix",
		Args:  exactArgs(1, "exactly 1 argument: <service>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, committed, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.store.Close()

			for _, id := range requirements {
				if !s.hasRequirement(id) {
					return UsageError{Message: fmt.Sprintf("service %q has no requirement %q", s.service.ID, id)}
				}
			}

			ctrl := a.standaloneController(s, committed)
			switch {
			case expandAll:
				ctrl.Expansion().ExpandAll(s.hierarchy)
			case depth > 0:
				ctrl.Expansion().ExpandLevel(s.hierarchy, depth)
			case a.cfg.TUI.ExpandCountries:
				ctrl.Expansion().ExpandLevel(s.hierarchy, location.LevelSubregion1)
			}

			header := s.service.ID
			if s.service.Name != "" {
				header += "  " + s.service.Name
			}
			if s.record.Revision != "" {
				header += fmt.Sprintf("  (revision %s, saved %s)", shortRevision(s.record.Revision), s.record.SavedAt.Format(time.RFC3339))
			}
			fmt.Fprintln(a.out, showHeaderStyle.Render(header))
			return renderMatrix(a.out, ctrl, filterRequirements(s.requirements, requirements))
		},
	}
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "expand every location")
	cmd.Flags().IntVar(&depth, "depth", 0, "expand locations down to this level (1=countries, 2=first subregions, ...)")
	cmd.Flags().StringSliceVar(&requirements, "requirement", nil, "only show these requirement ids (repeatable)")
	return cmd
}

var showHeaderStyle = lipgloss.NewStyle().Bold(true)

func filterRequirements(all []location.Requirement, only []string) []location.Requirement {
	if len(only) == 0 {
		return all
	}
	keep := map[string]bool{}
	for _, id := range only {
		keep[id] = true
	}
	out := make([]location.Requirement, 0, len(only))
	for _, r := range all {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func renderMatrix(w io.Writer, ctrl *matrix.Controller, reqs []location.Requirement) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	cols := []string{"LOCATION", "AVAIL"}
	for _, r := range reqs {
		cols = append(cols, r.ID)
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))

	for _, row := range ctrl.Rows() {
		cells := []string{treeLabel(row), checkbox(ctrl.IsAvailable(row.ID()))}
		for _, r := range reqs {
			cells = append(cells, checkbox(ctrl.IsSelected(row.ID(), r.ID)))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func treeLabel(row matrix.Row) string {
	marker := " "
	if row.HasChildren() {
		marker = "▸"
		if row.Expanded {
			marker = "▾"
		}
	}
	return strings.Repeat("  ", row.Level()) + marker + " " + row.Node.Name
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func shortRevision(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion records build information shown by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// UsageError marks errors caused by bad arguments; main exits 2 for them.
type UsageError struct {
	Message string
}

func (e UsageError) Error() string { return e.Message }

// Execute runs the reqmatrix CLI against the process arguments.
func Execute() error {
	return ExecuteArgs(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func ExecuteArgs(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout}
	var verbose bool

	root := &cobra.Command{
		Use:   "reqmatrix",
		Short: "reqmatrix edits which requirements apply to which locations",
		Long: `reqmatrix maintains, per service, a matrix of location x requirement selections
and a per-location availability flag over a hierarchical location tree.
Selecting a location selects its whole subtree; clearing one clears its ancestors.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(stderr, level)
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return a.loadConfig(logger)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("reqmatrix %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return UsageError{Message: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.root, "config-root", "", "project directory holding .reqmatrix/ (default: current directory)")
	flags.StringVar(&a.catalogOverride, "catalog", "", "catalog file (overrides catalog.path)")
	flags.StringVar(&a.backendOverride, "store", "", "store backend: file, sqlite, redis or memory (overrides store.backend)")
	flags.StringVar(&a.storePathOverride, "store-path", "", "store directory or database file (overrides store.path)")

	root.AddCommand(
		newInitCmd(a),
		newValidateCmd(a),
		newServicesCmd(a),
		newShowCmd(a),
		newSetCmd(a),
		newAvailCmd(a),
		newMigrateKeysCmd(a),
		newEditCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// exactArgs wraps cobra.ExactArgs so arity mistakes surface as UsageError.
func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return UsageError{Message: fmt.Sprintf("%s requires %s", cmd.Name(), usage)}
		}
		return nil
	}
}

func parseOnOff(value string) (bool, error) {
	switch value {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, UsageError{Message: fmt.Sprintf("expected on|off, got %q", value)}
	}
}

// IsUsageError reports whether err came from bad command-line input.
func IsUsageError(err error) bool {
	var ue UsageError
	return errors.As(err, &ue)
}

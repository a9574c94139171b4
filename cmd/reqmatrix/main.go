package main

import (
	"fmt"
	"os"

	"github.com/jbonatakis/reqmatrix/internal/cli"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if cli.IsUsageError(err) {
			fmt.Fprintln(os.Stderr, "run `reqmatrix --help` for usage")
			os.Exit(2)
		}
		os.Exit(1)
	}
}

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbonatakis/reqmatrix/internal/server"
	"github.com/jbonatakis/reqmatrix/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		memory bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the matrix editing API over HTTP",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			c, err := a.loadCatalog()
			if err != nil {
				return err
			}
			var st store.Store = store.NewMemoryStore()
			if !memory {
				st, err = a.openStore(cmd.Context())
				if err != nil {
					return err
				}
			}
			defer st.Close()

			if addr == "" {
				addr = a.cfg.Server.ListenAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Options{Catalog: c, Store: st, Logger: logger})
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.listenAddr)")
	cmd.Flags().BoolVar(&memory, "memory", false, "keep saves in memory only")
	return cmd
}

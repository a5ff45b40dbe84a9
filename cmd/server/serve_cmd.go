package main

import (
	"github.com/spf13/cobra"

	internalserver "github.com/iota-uz/facilities/internal/server"
	"github.com/iota-uz/facilities/pkg/configuration"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			app, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if migrateFirst {
				if err := app.Migrations().Apply(cmd.Context()); err != nil {
					return err
				}
			}

			srv, err := internalserver.Default(&internalserver.DefaultOptions{
				Logger:        conf.Logger(),
				Configuration: conf,
				Application:   app,
				Pool:          pool,
			})
			if err != nil {
				return err
			}
			conf.Logger().WithField("address", conf.SocketAddress).Info("server listening")
			return srv.Start(conf.SocketAddress)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

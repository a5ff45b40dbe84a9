package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/facilities/modules"
	"github.com/iota-uz/facilities/pkg/application"
	"github.com/iota-uz/facilities/pkg/authz"
	"github.com/iota-uz/facilities/pkg/configuration"
	"github.com/iota-uz/facilities/pkg/eventbus"
)

// bootstrap assembles the application: configuration, database pool,
// event bus, websocket hub, authorization and modules. Every command
// that touches the domain goes through it.
func bootstrap(ctx context.Context) (application.Application, *pgxpool.Pool, error) {
	conf := configuration.Use()
	logger := conf.Logger()

	poolCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(poolCtx, conf.Database.Opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create database pool")
	}
	if err := pool.Ping(poolCtx); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "failed to reach database")
	}

	authzService, err := authz.NewService(authz.Config{Logger: logger})
	if err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "failed to build authorization service")
	}
	authz.Setup(authzService)

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
		Hub: application.NewHub(&application.HubOptions{
			Logger: logger,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		}),
	})
	if err := modules.Load(app); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "failed to register modules")
	}
	return app, pool, nil
}

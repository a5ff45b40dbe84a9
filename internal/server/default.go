package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/facilities/pkg/application"
	"github.com/iota-uz/facilities/pkg/configuration"
	"github.com/iota-uz/facilities/pkg/middleware"
	"github.com/iota-uz/facilities/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	app.RegisterMiddleware(
		middleware.RequestID(),
		middleware.RequestLogger(options.Logger),
		middleware.ProvidePool(options.Pool),
		middleware.ProvideActor(),
	)

	app.RegisterControllers(&websocketController{hub: app.Websocket()})

	return server.NewHTTPServer(
		app,
		errorHandler(http.StatusNotFound, "NOT_FOUND", "route not found"),
		errorHandler(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed"),
	), nil
}

func errorHandler(status int, code, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": code, "message": message},
		})
	})
}

// websocketController mounts the shared hub; clients subscribe with
// GET /ws?channel=requests.
type websocketController struct {
	hub *application.Hub
}

func (c *websocketController) Key() string {
	return "/ws"
}

func (c *websocketController) Register(r *mux.Router) {
	r.Handle("/ws", c.hub).Methods(http.MethodGet)
}

package facilities

import (
	"embed"

	"github.com/iota-uz/facilities/modules/facilities/domain/workflow"
	"github.com/iota-uz/facilities/modules/facilities/handlers"
	"github.com/iota-uz/facilities/modules/facilities/infrastructure/persistence"
	"github.com/iota-uz/facilities/modules/facilities/permissions"
	"github.com/iota-uz/facilities/modules/facilities/presentation/controllers"
	"github.com/iota-uz/facilities/modules/facilities/services"
	"github.com/iota-uz/facilities/pkg/application"
	"github.com/iota-uz/facilities/pkg/authz"
	"github.com/iota-uz/facilities/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles, "infrastructure/persistence/schema")

	if err := authz.Use().AddGrants(permissions.Grants()...); err != nil {
		return err
	}

	requests := persistence.NewRequestRepository()
	resources := persistence.NewResourceRepository()
	engine := workflow.NewEngine()
	checker := services.NewConflictChecker(
		requests,
		resources,
		configuration.Use().Reservation.TransportTripWindow,
	)

	app.RegisterServices(
		services.NewRequestService(requests, resources, checker, engine, app.EventPublisher()),
		services.NewJobWorkService(requests, app.EventPublisher()),
		services.NewFulfillmentService(requests, resources, engine, app.EventPublisher()),
		services.NewResourceService(resources),
	)

	app.RegisterControllers(
		controllers.NewRequestsAPIController(app),
		controllers.NewResourcesAPIController(app),
	)

	handlers.RegisterNotificationHandler(app)

	return nil
}

func (m *Module) Name() string {
	return "facilities"
}

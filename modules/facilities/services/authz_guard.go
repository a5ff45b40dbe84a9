package services

import (
	"context"

	"github.com/iota-uz/facilities/pkg/authz"
	"github.com/iota-uz/facilities/pkg/composables"
)

// authorizeFacilitiesFn gates every mutating service call. Tests swap it
// out to exercise service logic without a configured enforcer.
var authorizeFacilitiesFn = func(ctx context.Context, object, action string) error {
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return err
	}
	return authz.Use().AuthorizeAnyRole(
		ctx,
		actor.Roles,
		authz.DomainFromDepartment(actor.DepartmentID),
		object,
		action,
	)
}

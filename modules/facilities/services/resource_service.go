package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
	"github.com/iota-uz/facilities/modules/facilities/permissions"
	"github.com/iota-uz/facilities/pkg/composables"
)

// ResourceService manages the master data reservations are taken
// against: venues, vehicles, borrowable items and supply stocks.
type ResourceService struct {
	repo resource.Repository
}

func NewResourceService(repo resource.Repository) *ResourceService {
	return &ResourceService{repo: repo}
}

func (s *ResourceService) GetByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectRequest, permissions.ActionRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*resource.Resource, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *ResourceService) GetPaginated(ctx context.Context, params *resource.FindParams) ([]*resource.Resource, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectRequest, permissions.ActionRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*resource.Resource, error) {
		return s.repo.GetPaginated(txCtx, params)
	})
}

func (s *ResourceService) Create(ctx context.Context, res *resource.Resource) (*resource.Resource, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectResource, permissions.ActionCreate); err != nil {
		return nil, err
	}
	if !res.Type.Valid() {
		return nil, request.ErrValidation.WithDetails("unknown resource type")
	}
	if res.Name == "" {
		return nil, request.ErrValidation.WithDetails("resource name is required")
	}
	if res.Status == "" {
		res.Status = resource.StatusAvailable
	}
	if res.Quantity <= 0 {
		if res.Type == resource.TypeSupply {
			return nil, request.ErrValidation.WithDetails("supply stock requires a positive quantity")
		}
		res.Quantity = 1
	}
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SetStatus lets operations take a resource out of circulation or bring
// it back.
func (s *ResourceService) SetStatus(ctx context.Context, id uuid.UUID, status resource.Status) error {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectResource, permissions.ActionExecute); err != nil {
		return err
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpdateStatus(txCtx, id, status)
	})
}

package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
	"github.com/iota-uz/facilities/modules/facilities/domain/workflow"
	"github.com/iota-uz/facilities/modules/facilities/permissions"
	"github.com/iota-uz/facilities/pkg/composables"
	"github.com/iota-uz/facilities/pkg/eventbus"
)

// RequestService owns the request envelope: creation with the conflict
// check, lifecycle transitions through the workflow engine and the
// requester-facing interval edit. Events publish after the transaction
// commits; delivery failure never rolls back a transition.
type RequestService struct {
	repo      request.Repository
	resources resource.Repository
	checker   *ConflictChecker
	engine    *workflow.Engine
	publisher eventbus.EventBus
}

func NewRequestService(
	repo request.Repository,
	resources resource.Repository,
	checker *ConflictChecker,
	engine *workflow.Engine,
	publisher eventbus.EventBus,
) *RequestService {
	return &RequestService{
		repo:      repo,
		resources: resources,
		checker:   checker,
		engine:    engine,
		publisher: publisher,
	}
}

func (s *RequestService) Count(ctx context.Context) (int64, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (int64, error) {
		return s.repo.Count(txCtx)
	})
}

func (s *RequestService) GetByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectRequest, permissions.ActionRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*request.Request, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *RequestService) GetPaginated(ctx context.Context, params *request.FindParams) ([]*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectRequest, permissions.ActionRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*request.Request, error) {
		return s.repo.GetPaginated(txCtx, params)
	})
}

// Create validates the payload, runs the conflict check and persists the
// envelope with its specialization atomically. A conflict fails the whole
// creation; nothing is written.
func (s *RequestService) Create(ctx context.Context, dto *request.CreateDTO) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectRequest, permissions.ActionCreate); err != nil {
		return nil, err
	}
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}

	entity, err := dto.ToEntity(actor.ID, actor.DepartmentID)
	if err != nil {
		return nil, err
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*request.Request, error) {
		if err := s.checker.Check(txCtx, entity, uuid.Nil); err != nil {
			return nil, err
		}
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}

	if event, err := request.NewCreatedEvent(ctx, *created); err == nil {
		s.publisher.Publish(event)
	}
	return created, nil
}

// UpdateStatus applies a lifecycle transition. The stored status read at
// the start of the transaction doubles as the optimistic concurrency
// token: a concurrent transition makes the guarded update match zero
// rows and the call fails with ErrStale.
func (s *RequestService) UpdateStatus(ctx context.Context, id uuid.UUID, target request.Status, reason string) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectRequest, actionForTarget(target)); err != nil {
		return nil, err
	}
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}

	var from request.Status
	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*request.Request, error) {
		req, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		from = req.Status
		if err := s.engine.Transition(req, actor, target, reason); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, req, from); err != nil {
			return nil, err
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	if event, err := request.NewStatusChangedEvent(ctx, from, target, *updated); err == nil {
		s.publisher.Publish(event)
	}
	return updated, nil
}

// UpdateInterval lets the requester move their own PENDING or ON_HOLD
// reservation. The conflict check reruns against the new interval,
// excluding the request's own stored reservation.
func (s *RequestService) UpdateInterval(ctx context.Context, id uuid.UUID, start, end time.Time) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectRequest, permissions.ActionUpdate); err != nil {
		return nil, err
	}
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*request.Request, error) {
		req, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if req.RequesterID != actor.ID {
			return nil, request.ErrForbidden.WithDetails("only the requester may edit the reservation interval")
		}
		if req.Status != request.StatusPending && req.Status != request.StatusOnHold {
			return nil, request.ErrInvalidTransition.WithDetails("interval edits are limited to pending and held requests")
		}

		switch payload := req.Payload.(type) {
		case *request.VenueDetails:
			if !start.Before(end) {
				return nil, request.ErrValidation.WithDetails("end time must be after start time")
			}
			payload.StartTime, payload.EndTime = start, end
		case *request.TransportDetails:
			payload.DateNeeded = start
		case *request.BorrowDetails:
			if !start.Before(end) {
				return nil, request.ErrValidation.WithDetails("return time must be after the pickup time")
			}
			payload.DateNeeded, payload.ReturnDate = start, end
		default:
			return nil, request.ErrValidation.WithDetails("request type has no reservation interval")
		}

		if err := s.checker.Check(txCtx, req, req.ID); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, req, req.Status); err != nil {
			return nil, err
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	if event, err := request.NewIntervalChangedEvent(ctx, start, end, *updated); err == nil {
		s.publisher.Publish(event)
	}
	return updated, nil
}

// SetVenueHeadDecision records the venue-owning department head's
// decision, the pre-gate of the venue pipeline. A negative decision
// rejects the request outright.
func (s *RequestService) SetVenueHeadDecision(ctx context.Context, id uuid.UUID, approved bool, reason string) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectRequest, permissions.ActionApprove); err != nil {
		return nil, err
	}
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(permissions.RoleDepartmentHead) {
		return nil, request.ErrForbidden.WithDetails("venue decisions require the owning department head")
	}

	var from request.Status
	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*request.Request, error) {
		req, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		venue := req.Venue()
		if venue == nil {
			return nil, request.ErrValidation.WithDetails("head decisions apply to venue requests only")
		}
		// The gate belongs to the head of the department that owns the
		// venue, not to heads at large.
		owner, err := s.resources.GetByID(txCtx, venue.VenueID)
		if err != nil {
			return nil, err
		}
		if owner.DepartmentID != actor.DepartmentID {
			return nil, request.ErrForbidden.WithDetails("venue decisions belong to the owning department's head")
		}
		if req.Status != request.StatusPending {
			return nil, request.ErrInvalidTransition.WithDetails("venue decision must precede review")
		}
		if venue.ApprovedByHead != nil {
			return nil, request.ErrInvalidTransition.WithDetails("venue decision is already recorded")
		}

		from = req.Status
		venue.ApprovedByHead = &approved
		if !approved {
			// Declining the venue short-circuits the pipeline; the
			// generic reviewer path never starts.
			reason = strings.TrimSpace(reason)
			if reason == "" {
				return nil, request.ErrValidation.WithDetails("declining a venue requires a non-empty reason")
			}
			req.Status = request.StatusRejected
			req.RejectionReason = &reason
		}
		if err := s.repo.Update(txCtx, req, from); err != nil {
			return nil, err
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Status != from {
		if event, err := request.NewStatusChangedEvent(ctx, from, updated.Status, *updated); err == nil {
			s.publisher.Publish(event)
		}
	}
	return updated, nil
}

func actionForTarget(target request.Status) string {
	switch target {
	case request.StatusReviewed:
		return permissions.ActionReview
	case request.StatusApproved:
		return permissions.ActionApprove
	case request.StatusRejected:
		return permissions.ActionReview
	case request.StatusOnHold:
		return permissions.ActionHold
	case request.StatusCancelled:
		return permissions.ActionCancel
	case request.StatusCompleted:
		return permissions.ActionExecute
	}
	return permissions.ActionReview
}

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

// Fulfillment step names carried on published events.
const (
	StepVenueStarted       = "venue_started"
	StepVenueCompleted     = "venue_completed"
	StepTransportStarted   = "transport_started"
	StepTransportCompleted = "transport_completed"
	StepItemPickedUp       = "item_picked_up"
	StepItemReturned       = "item_returned"
	StepItemLost           = "item_lost"
	StepSuppliesPickedUp   = "supplies_picked_up"
)

// FulfillmentService executes approved reservations: starting and
// finishing venue use, transport trips with odometer readings, item
// pickup/return and supply distribution. Completion flows back into the
// envelope through the workflow engine so the per-type readiness
// predicates stay in one place.
type FulfillmentService struct {
	repo      request.Repository
	resources resource.Repository
	engine    *workflow.Engine
	publisher eventbus.EventBus
}

func NewFulfillmentService(
	repo request.Repository,
	resources resource.Repository,
	engine *workflow.Engine,
	publisher eventbus.EventBus,
) *FulfillmentService {
	return &FulfillmentService{
		repo:      repo,
		resources: resources,
		engine:    engine,
		publisher: publisher,
	}
}

// StartVenue marks the booked venue as in use.
func (s *FulfillmentService) StartVenue(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return s.execute(ctx, id, StepVenueStarted, func(txCtx context.Context, req *request.Request, _ composables.Actor) error {
		venue := req.Venue()
		if venue == nil {
			return request.ErrValidation.WithDetails("operation applies to venue requests only")
		}
		if req.Status != request.StatusApproved {
			return request.ErrInvalidTransition.WithDetails("venue use starts after approval")
		}
		if venue.InProgress || venue.ActualStart != nil {
			return request.ErrInvalidTransition.WithDetails("venue use has already started")
		}
		now := time.Now()
		venue.InProgress = true
		venue.ActualStart = &now
		return s.resources.UpdateStatus(txCtx, venue.VenueID, resource.StatusInUse)
	})
}

// CompleteVenue ends the venue use and completes the envelope. Venue
// completion is an explicit action, never automatic at the booked end
// time.
func (s *FulfillmentService) CompleteVenue(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return s.execute(ctx, id, StepVenueCompleted, func(txCtx context.Context, req *request.Request, actor composables.Actor) error {
		venue := req.Venue()
		if venue == nil {
			return request.ErrValidation.WithDetails("operation applies to venue requests only")
		}
		if !venue.InProgress {
			return request.ErrInvalidTransition.WithDetails("venue use has not started")
		}
		now := time.Now()
		venue.InProgress = false
		venue.ActualEnd = &now
		if err := s.resources.UpdateStatus(txCtx, venue.VenueID, resource.StatusAvailable); err != nil {
			return err
		}
		return s.engine.Transition(req, actor, request.StatusCompleted, "")
	})
}

// StartTransport records the departure odometer reading and flags the
// vehicle as in use.
func (s *FulfillmentService) StartTransport(ctx context.Context, id uuid.UUID, odometer int64) (*request.Request, error) {
	return s.execute(ctx, id, StepTransportStarted, func(txCtx context.Context, req *request.Request, _ composables.Actor) error {
		transport := req.Transport()
		if transport == nil {
			return request.ErrValidation.WithDetails("operation applies to transport requests only")
		}
		if req.Status != request.StatusApproved {
			return request.ErrInvalidTransition.WithDetails("trips start after approval")
		}
		if transport.InProgress || transport.ActualStart != nil {
			return request.ErrInvalidTransition.WithDetails("trip has already started")
		}
		if odometer < 0 {
			return request.ErrValidation.WithDetails("odometer reading must not be negative")
		}
		now := time.Now()
		transport.InProgress = true
		transport.ActualStart = &now
		transport.OdometerStart = &odometer
		return s.resources.UpdateStatus(txCtx, transport.VehicleID, resource.StatusInUse)
	})
}

// CompleteTransport records the return odometer reading, computes the
// distance once and completes the envelope. The reading must exceed the
// departure reading.
func (s *FulfillmentService) CompleteTransport(ctx context.Context, id uuid.UUID, odometer int64) (*request.Request, error) {
	return s.execute(ctx, id, StepTransportCompleted, func(txCtx context.Context, req *request.Request, actor composables.Actor) error {
		transport := req.Transport()
		if transport == nil {
			return request.ErrValidation.WithDetails("operation applies to transport requests only")
		}
		if !transport.InProgress || transport.OdometerStart == nil {
			return request.ErrInvalidTransition.WithDetails("trip has not started")
		}
		if transport.TotalDistanceTravelled != nil {
			return request.ErrInvalidTransition.WithDetails("trip is already completed")
		}
		if odometer <= *transport.OdometerStart {
			return request.ErrValidation.WithDetails("return odometer reading must exceed the departure reading")
		}
		distance := odometer - *transport.OdometerStart
		transport.InProgress = false
		transport.OdometerEnd = &odometer
		transport.TotalDistanceTravelled = &distance
		if err := s.resources.UpdateStatus(txCtx, transport.VehicleID, resource.StatusAvailable); err != nil {
			return err
		}
		return s.engine.Transition(req, actor, request.StatusCompleted, "")
	})
}

// PickupItem hands the borrowed item out.
func (s *FulfillmentService) PickupItem(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return s.execute(ctx, id, StepItemPickedUp, func(txCtx context.Context, req *request.Request, _ composables.Actor) error {
		borrow := req.Borrow()
		if borrow == nil {
			return request.ErrValidation.WithDetails("operation applies to borrow requests only")
		}
		if req.Status != request.StatusApproved {
			return request.ErrInvalidTransition.WithDetails("pickup happens after approval")
		}
		if borrow.InProgress || borrow.IsReturned || borrow.IsLost {
			return request.ErrInvalidTransition.WithDetails("item is already out or back")
		}
		borrow.InProgress = true
		return s.resources.UpdateStatus(txCtx, borrow.ItemID, resource.StatusInUse)
	})
}

// ReturnItem takes the item back. The return condition is mandatory; a
// return after the agreed time marks the borrow overdue.
func (s *FulfillmentService) ReturnItem(ctx context.Context, id uuid.UUID, condition string) (*request.Request, error) {
	condition = strings.TrimSpace(condition)
	return s.execute(ctx, id, StepItemReturned, func(txCtx context.Context, req *request.Request, actor composables.Actor) error {
		borrow := req.Borrow()
		if borrow == nil {
			return request.ErrValidation.WithDetails("operation applies to borrow requests only")
		}
		if !borrow.InProgress {
			return request.ErrInvalidTransition.WithDetails("item is not out")
		}
		if condition == "" {
			return request.ErrValidation.WithDetails("return condition is required")
		}
		now := time.Now()
		borrow.InProgress = false
		borrow.IsReturned = true
		borrow.ActualReturnDate = &now
		borrow.ReturnCondition = &condition
		borrow.IsOverdue = now.After(borrow.ReturnDate)
		if err := s.resources.UpdateStatus(txCtx, borrow.ItemID, resource.StatusAvailable); err != nil {
			return err
		}
		return s.engine.Transition(req, actor, request.StatusCompleted, "")
	})
}

// ReportItemLost closes a borrow whose item will not come back and takes
// the item out of circulation.
func (s *FulfillmentService) ReportItemLost(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	reason = strings.TrimSpace(reason)
	return s.execute(ctx, id, StepItemLost, func(txCtx context.Context, req *request.Request, actor composables.Actor) error {
		borrow := req.Borrow()
		if borrow == nil {
			return request.ErrValidation.WithDetails("operation applies to borrow requests only")
		}
		if !borrow.InProgress {
			return request.ErrInvalidTransition.WithDetails("item is not out")
		}
		if reason == "" {
			return request.ErrValidation.WithDetails("reporting a loss requires a non-empty reason")
		}
		borrow.InProgress = false
		borrow.IsLost = true
		borrow.LostReason = &reason
		if err := s.resources.UpdateStatus(txCtx, borrow.ItemID, resource.StatusUnavailable); err != nil {
			return err
		}
		return s.engine.Transition(req, actor, request.StatusCompleted, "")
	})
}

// PickupSupplies hands the requested stock out, decrementing each line's
// quantity, and completes the envelope. Insufficient stock on any line
// fails the whole pickup.
func (s *FulfillmentService) PickupSupplies(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return s.execute(ctx, id, StepSuppliesPickedUp, func(txCtx context.Context, req *request.Request, actor composables.Actor) error {
		supply := req.Supply()
		if supply == nil {
			return request.ErrValidation.WithDetails("operation applies to supply requests only")
		}
		if req.Status != request.StatusApproved {
			return request.ErrInvalidTransition.WithDetails("pickup happens after approval")
		}
		for _, line := range supply.Items {
			if err := s.resources.AdjustQuantity(txCtx, line.SupplyItemID, -line.Quantity); err != nil {
				return err
			}
		}
		return s.engine.Transition(req, actor, request.StatusCompleted, "")
	})
}

func (s *FulfillmentService) execute(
	ctx context.Context,
	id uuid.UUID,
	step string,
	fn func(txCtx context.Context, req *request.Request, actor composables.Actor) error,
) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectFulfillment, permissions.ActionExecute); err != nil {
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
		expected := req.Status
		if err := fn(txCtx, req, actor); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, req, expected); err != nil {
			return nil, err
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	if event, err := request.NewFulfillmentEvent(ctx, step, *updated); err == nil {
		s.publisher.Publish(event)
	}
	return updated, nil
}

package request

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/facilities/pkg/composables"
)

// CreatedEvent fires after a request row is committed.
type CreatedEvent struct {
	ActorID   uuid.UUID
	Result    Request
	Timestamp time.Time
}

// StatusChangedEvent fires after any envelope status transition.
type StatusChangedEvent struct {
	ActorID   uuid.UUID
	From      Status
	To        Status
	Result    Request
	Timestamp time.Time
}

// IntervalChangedEvent fires when the requester moves their reservation
// interval.
type IntervalChangedEvent struct {
	ActorID   uuid.UUID
	Start     time.Time
	End       time.Time
	Result    Request
	Timestamp time.Time
}

// WorkProgressedEvent fires when a job sub-state or verification flag moves.
type WorkProgressedEvent struct {
	ActorID   uuid.UUID
	JobStatus JobStatus
	Result    Request
	Timestamp time.Time
}

// FulfillmentEvent fires on venue/transport/borrow/supply execution steps.
type FulfillmentEvent struct {
	ActorID   uuid.UUID
	Step      string
	Result    Request
	Timestamp time.Time
}

func NewCreatedEvent(ctx context.Context, result Request) (*CreatedEvent, error) {
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}
	return &CreatedEvent{
		ActorID:   actor.ID,
		Result:    result,
		Timestamp: time.Now(),
	}, nil
}

func NewStatusChangedEvent(ctx context.Context, from, to Status, result Request) (*StatusChangedEvent, error) {
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusChangedEvent{
		ActorID:   actor.ID,
		From:      from,
		To:        to,
		Result:    result,
		Timestamp: time.Now(),
	}, nil
}

func NewIntervalChangedEvent(ctx context.Context, start, end time.Time, result Request) (*IntervalChangedEvent, error) {
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}
	return &IntervalChangedEvent{
		ActorID:   actor.ID,
		Start:     start,
		End:       end,
		Result:    result,
		Timestamp: time.Now(),
	}, nil
}

func NewWorkProgressedEvent(ctx context.Context, result Request) (*WorkProgressedEvent, error) {
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}
	job := result.Job()
	if job == nil {
		return nil, ErrValidation.WithDetails("work events require a job request")
	}
	return &WorkProgressedEvent{
		ActorID:   actor.ID,
		JobStatus: job.Status,
		Result:    result,
		Timestamp: time.Now(),
	}, nil
}

func NewFulfillmentEvent(ctx context.Context, step string, result Request) (*FulfillmentEvent, error) {
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}
	return &FulfillmentEvent{
		ActorID:   actor.ID,
		Step:      step,
		Result:    result,
		Timestamp: time.Now(),
	}, nil
}

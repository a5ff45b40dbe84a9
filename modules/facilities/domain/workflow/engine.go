package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/pkg/composables"
)

// Engine applies envelope status transitions. It validates legality,
// role gates and reason requirements, then mutates the request in place.
// Persistence and conflict checking stay with the caller.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock is used by tests that need a fixed clock.
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Transition moves req from its current status to target on behalf of the
// actor. reason is required for REJECTED, ON_HOLD and reviewer-initiated
// CANCELLED transitions and ignored otherwise.
func (e *Engine) Transition(req *request.Request, actor composables.Actor, target request.Status, reason string) error {
	if !target.Valid() {
		return request.ErrValidation.WithDetails(fmt.Sprintf("unknown status %q", target))
	}
	if req.Status.Terminal() {
		return request.ErrInvalidTransition.WithDetails(
			fmt.Sprintf("request is closed in status %s", req.Status))
	}
	if req.Status == target {
		// A duplicate submission must not drive a second transition.
		return request.ErrInvalidTransition.WithDetails(
			fmt.Sprintf("request is already %s", target))
	}

	policy := PolicyFor(req.Type)
	reason = strings.TrimSpace(reason)

	var err error
	switch target {
	case request.StatusReviewed:
		err = e.review(req, actor, policy)
	case request.StatusApproved:
		err = e.approve(req, actor, policy)
	case request.StatusRejected:
		err = e.reject(req, actor, policy, reason)
	case request.StatusOnHold:
		err = e.hold(req, actor, policy, reason)
	case request.StatusCancelled:
		err = e.cancel(req, actor, policy, reason)
	case request.StatusCompleted:
		err = e.complete(req, actor, policy)
	default:
		err = request.ErrInvalidTransition.WithDetails(
			fmt.Sprintf("%s is not a transition target", target))
	}
	if err != nil {
		return err
	}

	req.Status = target
	req.UpdatedAt = e.now()
	return nil
}

func (e *Engine) review(req *request.Request, actor composables.Actor, policy Policy) error {
	if req.Status != request.StatusPending {
		return illegal(req.Status, request.StatusReviewed)
	}
	if !actor.HasRole(policy.ReviewerRole) {
		return forbidden(policy.ReviewerRole, "review")
	}
	if policy.ReviewGate != nil {
		if err := policy.ReviewGate(req); err != nil {
			return err
		}
	}
	reviewerID := actor.ID
	req.ReviewerID = &reviewerID
	return nil
}

func (e *Engine) approve(req *request.Request, actor composables.Actor, policy Policy) error {
	switch req.Status {
	case request.StatusReviewed:
		if !actor.HasRole(policy.ApproverRole) {
			return forbidden(policy.ApproverRole, "approve")
		}
	case request.StatusOnHold:
		// Resume: the reviewer who holds a request also releases it.
		if !actor.HasRole(policy.ReviewerRole) {
			return forbidden(policy.ReviewerRole, "resume")
		}
		req.OnHoldReason = nil
	default:
		return illegal(req.Status, request.StatusApproved)
	}
	return nil
}

func (e *Engine) reject(req *request.Request, actor composables.Actor, policy Policy, reason string) error {
	switch req.Status {
	case request.StatusPending:
		if !actor.HasRole(policy.ReviewerRole) {
			return forbidden(policy.ReviewerRole, "reject")
		}
	case request.StatusReviewed:
		if !actor.HasRole(policy.ApproverRole) {
			return forbidden(policy.ApproverRole, "reject")
		}
	default:
		return illegal(req.Status, request.StatusRejected)
	}
	if reason == "" {
		return request.ErrValidation.WithDetails("rejection requires a non-empty reason")
	}
	req.RejectionReason = &reason
	return nil
}

func (e *Engine) hold(req *request.Request, actor composables.Actor, policy Policy, reason string) error {
	if req.Status != request.StatusApproved {
		return illegal(req.Status, request.StatusOnHold)
	}
	if !actor.HasRole(policy.ReviewerRole) {
		return forbidden(policy.ReviewerRole, "hold")
	}
	if req.Started() {
		return request.ErrInvalidTransition.WithDetails("resource use already started, request cannot be held")
	}
	if reason == "" {
		return request.ErrValidation.WithDetails("holding requires a non-empty reason")
	}
	req.OnHoldReason = &reason
	return nil
}

func (e *Engine) cancel(req *request.Request, actor composables.Actor, policy Policy, reason string) error {
	if req.Started() {
		return request.ErrInvalidTransition.WithDetails("resource use already started, request cannot be cancelled")
	}
	switch req.Status {
	case request.StatusPending:
		// Requesters may withdraw their own pending request freely.
		if actor.ID != req.RequesterID {
			return request.ErrForbidden.WithDetails("only the requester may cancel a pending request")
		}
		if reason != "" {
			req.CancellationReason = &reason
		}
		return nil
	case request.StatusReviewed, request.StatusApproved, request.StatusOnHold:
		if !actor.HasRole(policy.ReviewerRole) {
			return forbidden(policy.ReviewerRole, "cancel")
		}
		if reason == "" {
			return request.ErrValidation.WithDetails("cancellation after review requires a non-empty reason")
		}
		req.CancellationReason = &reason
		return nil
	}
	return illegal(req.Status, request.StatusCancelled)
}

func (e *Engine) complete(req *request.Request, actor composables.Actor, policy Policy) error {
	if req.Status != request.StatusApproved {
		return illegal(req.Status, request.StatusCompleted)
	}
	if !actor.HasRole(policy.ReviewerRole) {
		return forbidden(policy.ReviewerRole, "complete")
	}
	if policy.CompletionReady == nil || !policy.CompletionReady(req) {
		return request.ErrInvalidTransition.WithDetails("specialization is not ready for completion")
	}
	completedAt := e.now()
	req.CompletedAt = &completedAt
	return nil
}

func illegal(from, to request.Status) error {
	return request.ErrInvalidTransition.WithDetails(fmt.Sprintf("%s -> %s", from, to))
}

func forbidden(role, action string) error {
	return request.ErrForbidden.WithDetails(fmt.Sprintf("%s requires role %s", action, role))
}

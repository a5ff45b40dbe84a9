package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/permissions"
	"github.com/iota-uz/facilities/pkg/composables"
	"github.com/iota-uz/facilities/pkg/eventbus"
)

// JobWorkService drives the job sub-machine: assignment, the
// PENDING -> IN_PROGRESS -> COMPLETED progression, the one-shot
// verifications and the rejection/rework loop. The sub-machine moves
// independently of the envelope once the request is APPROVED.
type JobWorkService struct {
	repo      request.Repository
	publisher eventbus.EventBus
}

func NewJobWorkService(repo request.Repository, publisher eventbus.EventBus) *JobWorkService {
	return &JobWorkService{repo: repo, publisher: publisher}
}

// AssignPersonnel records who will do the work. Assignment is the review
// gate for jobs, so it has to land while the envelope is still PENDING.
func (s *JobWorkService) AssignPersonnel(ctx context.Context, id, personnelID uuid.UUID) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectJobWork, permissions.ActionAssign); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(txCtx context.Context, req *request.Request, job *request.JobDetails, _ composables.Actor) error {
		if req.Status != request.StatusPending {
			return request.ErrInvalidTransition.WithDetails("personnel can only be assigned before review")
		}
		if personnelID == uuid.Nil {
			return request.ErrValidation.WithDetails("personnel id is required")
		}
		job.AssignedTo = &personnelID
		return nil
	})
}

// StartWork moves the sub-machine to IN_PROGRESS. Only the assigned
// personnel may start, and only once the envelope is APPROVED.
func (s *JobWorkService) StartWork(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectJobWork, permissions.ActionProgress); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(txCtx context.Context, req *request.Request, job *request.JobDetails, actor composables.Actor) error {
		if err := requireAssignee(job, actor); err != nil {
			return err
		}
		if req.Status != request.StatusApproved {
			return request.ErrInvalidTransition.WithDetails("work starts after approval")
		}
		if job.Status != request.JobStatusPending {
			return subTransitionError(job.Status, request.JobStatusInProgress)
		}
		job.Status = request.JobStatusInProgress
		return nil
	})
}

// CompleteWork marks the current work pass done and opens the
// verification window.
func (s *JobWorkService) CompleteWork(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectJobWork, permissions.ActionProgress); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(txCtx context.Context, req *request.Request, job *request.JobDetails, actor composables.Actor) error {
		if err := requireAssignee(job, actor); err != nil {
			return err
		}
		if job.Status != request.JobStatusInProgress {
			return subTransitionError(job.Status, request.JobStatusCompleted)
		}
		job.Status = request.JobStatusCompleted
		return nil
	})
}

// Verify records the requester's or the reviewer's sign-off. Each flag
// is settable exactly once, by the matching actor, and only while the
// sub-machine sits in COMPLETED.
func (s *JobWorkService) Verify(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectJobWork, permissions.ActionVerify); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(txCtx context.Context, req *request.Request, job *request.JobDetails, actor composables.Actor) error {
		if job.Status != request.JobStatusCompleted {
			return request.ErrInvalidTransition.WithDetails("verification opens once the work is completed")
		}
		switch {
		case actor.ID == req.RequesterID:
			if job.VerifiedByRequester {
				return request.ErrInvalidTransition.WithDetails("requester verification is already recorded")
			}
			job.VerifiedByRequester = true
		case actor.HasRole(permissions.RoleOperationsManager):
			if job.VerifiedByReviewer {
				return request.ErrInvalidTransition.WithDetails("reviewer verification is already recorded")
			}
			job.VerifiedByReviewer = true
		default:
			return request.ErrForbidden.WithDetails("only the requester or the reviewer may verify the work")
		}
		return nil
	})
}

// RejectWork opens a rework cycle: the reviewer rejects a completed job,
// the sub-machine drops to REJECTED and a rework attempt is appended
// carrying the rejection reason.
func (s *JobWorkService) RejectWork(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectJobWork, permissions.ActionReview); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	return s.mutate(ctx, id, func(txCtx context.Context, req *request.Request, job *request.JobDetails, actor composables.Actor) error {
		if !actor.HasRole(permissions.RoleOperationsManager) {
			return request.ErrForbidden.WithDetails("only the reviewer may reject completed work")
		}
		if job.Status != request.JobStatusCompleted {
			return request.ErrInvalidTransition.WithDetails("only completed work can be rejected")
		}
		if job.VerifiedByReviewer {
			return request.ErrInvalidTransition.WithDetails("work is already verified by the reviewer")
		}
		if reason == "" {
			return request.ErrValidation.WithDetails("rejecting work requires a non-empty reason")
		}

		attempt, err := s.repo.AddReworkAttempt(txCtx, &request.ReworkAttempt{
			RequestID:       req.ID,
			RejectionReason: reason,
		})
		if err != nil {
			return err
		}
		job.ReworkAttempts = append(job.ReworkAttempts, *attempt)
		job.Status = request.JobStatusRejected
		return nil
	})
}

// StartRework restarts the work on the latest unresolved attempt.
func (s *JobWorkService) StartRework(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectJobWork, permissions.ActionProgress); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(txCtx context.Context, req *request.Request, job *request.JobDetails, actor composables.Actor) error {
		if err := requireAssignee(job, actor); err != nil {
			return err
		}
		if job.Status != request.JobStatusRejected {
			return subTransitionError(job.Status, request.JobStatusReworkInProgress)
		}
		attempt := job.LatestUnresolvedAttempt()
		if attempt == nil {
			return request.ErrInvalidTransition.WithDetails("no unresolved rework attempt to start")
		}
		now := time.Now()
		attempt.ReworkStartDate = &now
		if err := s.repo.UpdateReworkAttempt(txCtx, attempt); err != nil {
			return err
		}
		job.Status = request.JobStatusReworkInProgress
		return nil
	})
}

// FinishRework closes the running rework attempt and returns the
// sub-machine to COMPLETED for a fresh verification pass.
func (s *JobWorkService) FinishRework(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	if err := authorizeFacilitiesFn(ctx, permissions.ObjectJobWork, permissions.ActionProgress); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(txCtx context.Context, req *request.Request, job *request.JobDetails, actor composables.Actor) error {
		if err := requireAssignee(job, actor); err != nil {
			return err
		}
		if job.Status != request.JobStatusReworkInProgress {
			return subTransitionError(job.Status, request.JobStatusCompleted)
		}
		attempt := job.LatestUnresolvedAttempt()
		if attempt == nil {
			return request.ErrInvalidTransition.WithDetails("no rework attempt is in progress")
		}
		now := time.Now()
		attempt.ReworkEndDate = &now
		attempt.Resolved = true
		if err := s.repo.UpdateReworkAttempt(txCtx, attempt); err != nil {
			return err
		}
		// The reviewer must judge the redone work anew.
		job.VerifiedByReviewer = false
		job.Status = request.JobStatusCompleted
		return nil
	})
}

// mutate loads the job request, applies fn and persists the result under
// the envelope-status guard, all in one transaction.
func (s *JobWorkService) mutate(
	ctx context.Context,
	id uuid.UUID,
	fn func(txCtx context.Context, req *request.Request, job *request.JobDetails, actor composables.Actor) error,
) (*request.Request, error) {
	actor, err := composables.UseActor(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*request.Request, error) {
		req, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		job := req.Job()
		if job == nil {
			return nil, request.ErrValidation.WithDetails("operation applies to job requests only")
		}
		if req.Status.Terminal() {
			return nil, request.ErrInvalidTransition.WithDetails("request is closed")
		}
		expected := req.Status
		if err := fn(txCtx, req, job, actor); err != nil {
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

	if event, err := request.NewWorkProgressedEvent(ctx, *updated); err == nil {
		s.publisher.Publish(event)
	}
	return updated, nil
}

func requireAssignee(job *request.JobDetails, actor composables.Actor) error {
	if job.AssignedTo == nil || *job.AssignedTo != actor.ID {
		return request.ErrForbidden.WithDetails("only the assigned personnel may progress the work")
	}
	return nil
}

func subTransitionError(from, to request.JobStatus) error {
	return request.ErrInvalidTransition.WithDetails(string(from) + " -> " + string(to))
}

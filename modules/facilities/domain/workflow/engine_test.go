package workflow_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/workflow"
	"github.com/iota-uz/facilities/modules/facilities/permissions"
	"github.com/iota-uz/facilities/pkg/composables"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newEngine() *workflow.Engine {
	return workflow.NewEngineWithClock(func() time.Time { return fixedNow })
}

func requesterActor(id uuid.UUID) composables.Actor {
	return composables.Actor{ID: id, Roles: []string{permissions.RoleRequester}}
}

func reviewerActor() composables.Actor {
	return composables.Actor{ID: uuid.New(), Roles: []string{permissions.RoleOperationsManager}}
}

func approverActor() composables.Actor {
	return composables.Actor{ID: uuid.New(), Roles: []string{permissions.RoleDepartmentHead}}
}

func newTransportRequest() *request.Request {
	return request.New(uuid.New(), uuid.New(), &request.TransportDetails{
		VehicleID:  uuid.New(),
		DateNeeded: fixedNow.Add(24 * time.Hour),
	})
}

func newJobRequest() *request.Request {
	return request.New(uuid.New(), uuid.New(), &request.JobDetails{
		JobType:     "repair",
		Location:    "block A",
		Description: "leaking pipe",
		Status:      request.JobStatusPending,
	})
}

func TestEngine_ReviewThenApprove(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()
	reviewer := reviewerActor()

	require.NoError(t, e.Transition(req, reviewer, request.StatusReviewed, ""))
	require.Equal(t, request.StatusReviewed, req.Status)
	require.NotNil(t, req.ReviewerID)
	require.Equal(t, reviewer.ID, *req.ReviewerID)

	require.NoError(t, e.Transition(req, approverActor(), request.StatusApproved, ""))
	require.Equal(t, request.StatusApproved, req.Status)
}

func TestEngine_ReviewRequiresReviewerRole(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()

	err := e.Transition(req, requesterActor(req.RequesterID), request.StatusReviewed, "")
	require.ErrorIs(t, err, request.ErrForbidden)
	require.Equal(t, request.StatusPending, req.Status)
}

func TestEngine_ApproveRequiresApproverRole(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))

	err := e.Transition(req, reviewerActor(), request.StatusApproved, "")
	require.ErrorIs(t, err, request.ErrForbidden)
	require.Equal(t, request.StatusReviewed, req.Status)
}

func TestEngine_JobReviewRequiresAssignment(t *testing.T) {
	e := newEngine()
	req := newJobRequest()

	err := e.Transition(req, reviewerActor(), request.StatusReviewed, "")
	require.ErrorIs(t, err, request.ErrValidation)

	assignee := uuid.New()
	req.Job().AssignedTo = &assignee
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))
}

func TestEngine_VenueReviewRequiresHeadDecision(t *testing.T) {
	e := newEngine()
	req := request.New(uuid.New(), uuid.New(), &request.VenueDetails{
		VenueID:   uuid.New(),
		StartTime: fixedNow,
		EndTime:   fixedNow.Add(2 * time.Hour),
	})

	err := e.Transition(req, reviewerActor(), request.StatusReviewed, "")
	require.ErrorIs(t, err, request.ErrValidation)

	declined := false
	req.Venue().ApprovedByHead = &declined
	err = e.Transition(req, reviewerActor(), request.StatusReviewed, "")
	require.ErrorIs(t, err, request.ErrInvalidTransition)

	granted := true
	req.Venue().ApprovedByHead = &granted
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))
}

func TestEngine_RejectRequiresReason(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()

	err := e.Transition(req, reviewerActor(), request.StatusRejected, "  ")
	require.ErrorIs(t, err, request.ErrValidation)
	require.Equal(t, request.StatusPending, req.Status)

	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusRejected, "duplicate request"))
	require.Equal(t, request.StatusRejected, req.Status)
	require.NotNil(t, req.RejectionReason)
	require.Equal(t, "duplicate request", *req.RejectionReason)
}

func TestEngine_HoldAndResume(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))
	require.NoError(t, e.Transition(req, approverActor(), request.StatusApproved, ""))

	err := e.Transition(req, reviewerActor(), request.StatusOnHold, "")
	require.ErrorIs(t, err, request.ErrValidation)

	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusOnHold, "vehicle in maintenance"))
	require.Equal(t, request.StatusOnHold, req.Status)
	require.NotNil(t, req.OnHoldReason)

	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusApproved, ""))
	require.Equal(t, request.StatusApproved, req.Status)
	require.Nil(t, req.OnHoldReason)
}

func TestEngine_HoldBlockedOnceStarted(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))
	require.NoError(t, e.Transition(req, approverActor(), request.StatusApproved, ""))
	req.Transport().InProgress = true

	err := e.Transition(req, reviewerActor(), request.StatusOnHold, "too late")
	require.ErrorIs(t, err, request.ErrInvalidTransition)
}

func TestEngine_RequesterCancelsOwnPendingWithoutReason(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()

	err := e.Transition(req, requesterActor(uuid.New()), request.StatusCancelled, "")
	require.ErrorIs(t, err, request.ErrForbidden)

	require.NoError(t, e.Transition(req, requesterActor(req.RequesterID), request.StatusCancelled, ""))
	require.Equal(t, request.StatusCancelled, req.Status)
	require.Nil(t, req.CancellationReason)
}

func TestEngine_ReviewerCancelAfterReviewRequiresReason(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))

	err := e.Transition(req, reviewerActor(), request.StatusCancelled, "")
	require.ErrorIs(t, err, request.ErrValidation)

	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusCancelled, "event postponed"))
	require.NotNil(t, req.CancellationReason)
}

func TestEngine_CancelBlockedOnceStarted(t *testing.T) {
	e := newEngine()
	req := newJobRequest()
	assignee := uuid.New()
	req.Job().AssignedTo = &assignee
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))
	require.NoError(t, e.Transition(req, approverActor(), request.StatusApproved, ""))
	req.Job().Status = request.JobStatusInProgress

	err := e.Transition(req, reviewerActor(), request.StatusCancelled, "changed plans")
	require.ErrorIs(t, err, request.ErrInvalidTransition)
}

func TestEngine_DuplicateApproveIsRejected(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))
	require.NoError(t, e.Transition(req, approverActor(), request.StatusApproved, ""))

	err := e.Transition(req, approverActor(), request.StatusApproved, "")
	require.ErrorIs(t, err, request.ErrInvalidTransition)
	require.Equal(t, request.StatusApproved, req.Status)
}

func TestEngine_TerminalStatusIsFrozen(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusRejected, "no vehicles"))

	for _, target := range []request.Status{
		request.StatusPending, request.StatusReviewed, request.StatusApproved,
		request.StatusCancelled, request.StatusCompleted,
	} {
		err := e.Transition(req, reviewerActor(), target, "reason")
		require.ErrorIs(t, err, request.ErrInvalidTransition, "target %s", target)
	}
}

func TestEngine_CompleteRequiresSpecializationReadiness(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))
	require.NoError(t, e.Transition(req, approverActor(), request.StatusApproved, ""))

	err := e.Transition(req, reviewerActor(), request.StatusCompleted, "")
	require.ErrorIs(t, err, request.ErrInvalidTransition)

	distance := int64(50)
	req.Transport().TotalDistanceTravelled = &distance
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusCompleted, ""))
	require.Equal(t, request.StatusCompleted, req.Status)
	require.NotNil(t, req.CompletedAt)
	require.Equal(t, fixedNow, *req.CompletedAt)
}

func TestEngine_JobCompletionNeedsBothVerifications(t *testing.T) {
	e := newEngine()
	req := newJobRequest()
	assignee := uuid.New()
	job := req.Job()
	job.AssignedTo = &assignee
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusReviewed, ""))
	require.NoError(t, e.Transition(req, approverActor(), request.StatusApproved, ""))

	job.Status = request.JobStatusCompleted
	job.VerifiedByRequester = true
	err := e.Transition(req, reviewerActor(), request.StatusCompleted, "")
	require.ErrorIs(t, err, request.ErrInvalidTransition)

	job.VerifiedByReviewer = true
	require.NoError(t, e.Transition(req, reviewerActor(), request.StatusCompleted, ""))
}

func TestEngine_UnknownTargetStatus(t *testing.T) {
	e := newEngine()
	req := newTransportRequest()

	err := e.Transition(req, reviewerActor(), request.Status("ARCHIVED"), "")
	require.ErrorIs(t, err, request.ErrValidation)
}

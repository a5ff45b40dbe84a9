package workflow

import (
	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/permissions"
)

// Policy is the per-type contract the engine consults on top of the
// shared transition table: who reviews, who approves, what must already
// hold before review, and when the envelope may be completed.
type Policy struct {
	ReviewerRole string
	ApproverRole string
	// ReviewGate runs before PENDING -> REVIEWED and blocks the
	// transition when the specialization is not ready for review.
	ReviewGate func(req *request.Request) error
	// CompletionReady reports whether APPROVED -> COMPLETED may fire.
	CompletionReady func(req *request.Request) bool
}

// PolicyFor returns the approval policy of a request type.
func PolicyFor(t request.Type) Policy {
	switch t {
	case request.TypeJob:
		return Policy{
			ReviewerRole:    permissions.RoleOperationsManager,
			ApproverRole:    permissions.RoleDepartmentHead,
			ReviewGate:      jobReviewGate,
			CompletionReady: jobCompletionReady,
		}
	case request.TypeVenue:
		return Policy{
			ReviewerRole:    permissions.RoleOperationsManager,
			ApproverRole:    permissions.RoleDepartmentHead,
			ReviewGate:      venueReviewGate,
			CompletionReady: venueCompletionReady,
		}
	case request.TypeTransport:
		return Policy{
			ReviewerRole:    permissions.RoleOperationsManager,
			ApproverRole:    permissions.RoleDepartmentHead,
			CompletionReady: transportCompletionReady,
		}
	case request.TypeBorrow:
		return Policy{
			ReviewerRole:    permissions.RoleOperationsManager,
			ApproverRole:    permissions.RoleDepartmentHead,
			CompletionReady: borrowCompletionReady,
		}
	case request.TypeSupply:
		return Policy{
			ReviewerRole:    permissions.RoleOperationsManager,
			ApproverRole:    permissions.RoleDepartmentHead,
			CompletionReady: supplyCompletionReady,
		}
	}
	return Policy{
		ReviewerRole:    permissions.RoleOperationsManager,
		ApproverRole:    permissions.RoleDepartmentHead,
		CompletionReady: func(*request.Request) bool { return false },
	}
}

// jobReviewGate: personnel must be assigned before a job reaches review.
func jobReviewGate(req *request.Request) error {
	job := req.Job()
	if job == nil || job.AssignedTo == nil {
		return request.ErrValidation.WithDetails("job requests require assigned personnel before review")
	}
	return nil
}

// venueReviewGate: the venue's owning department head must have recorded
// an explicit decision before the generic pipeline proceeds. A negative
// decision is handled as a rejection upstream, never reaches review.
func venueReviewGate(req *request.Request) error {
	venue := req.Venue()
	if venue == nil || venue.ApprovedByHead == nil {
		return request.ErrValidation.WithDetails("venue requests require the owning department head decision before review")
	}
	if !*venue.ApprovedByHead {
		return request.ErrInvalidTransition.WithDetails("venue was declined by the owning department head")
	}
	return nil
}

func jobCompletionReady(req *request.Request) bool {
	job := req.Job()
	if job == nil {
		return false
	}
	return job.Status == request.JobStatusCompleted &&
		job.VerifiedByRequester && job.VerifiedByReviewer
}

func venueCompletionReady(req *request.Request) bool {
	venue := req.Venue()
	return venue != nil && venue.ActualEnd != nil
}

func transportCompletionReady(req *request.Request) bool {
	transport := req.Transport()
	return transport != nil && transport.TotalDistanceTravelled != nil
}

func borrowCompletionReady(req *request.Request) bool {
	borrow := req.Borrow()
	return borrow != nil && (borrow.IsReturned || borrow.IsLost)
}

// Supply requests complete at pickup; the distribution step itself is
// the readiness signal.
func supplyCompletionReady(req *request.Request) bool {
	return req.Supply() != nil
}

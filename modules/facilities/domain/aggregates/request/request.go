package request

import (
	"time"

	"github.com/google/uuid"
)

// Request is the generic envelope wrapping exactly one specialization
// payload. Envelope and payload are created together, atomically, and
// are never destroyed: terminal states close a request, they do not
// delete it.
type Request struct {
	ID           uuid.UUID
	Type         Type
	Status       Status
	RequesterID  uuid.UUID
	DepartmentID uuid.UUID
	ReviewerID   *uuid.UUID

	RejectionReason    *string
	CancellationReason *string
	OnHoldReason       *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	Payload Specialization
}

func New(requesterID, departmentID uuid.UUID, payload Specialization) *Request {
	return &Request{
		Type:         payload.Type(),
		Status:       StatusPending,
		RequesterID:  requesterID,
		DepartmentID: departmentID,
		Payload:      payload,
	}
}

// Started reports whether resource use has begun on the specialization.
func (r *Request) Started() bool {
	if r.Payload == nil {
		return false
	}
	return r.Payload.Started()
}

// Job returns the job payload, or nil when the request is not a job.
func (r *Request) Job() *JobDetails {
	payload, _ := r.Payload.(*JobDetails)
	return payload
}

func (r *Request) Venue() *VenueDetails {
	payload, _ := r.Payload.(*VenueDetails)
	return payload
}

func (r *Request) Transport() *TransportDetails {
	payload, _ := r.Payload.(*TransportDetails)
	return payload
}

func (r *Request) Borrow() *BorrowDetails {
	payload, _ := r.Payload.(*BorrowDetails)
	return payload
}

func (r *Request) Supply() *SupplyDetails {
	payload, _ := r.Payload.(*SupplyDetails)
	return payload
}

// ResourceID returns the exclusive resource this request claims, if any.
// Supply and job requests do not reserve an exclusive resource.
func (r *Request) ResourceID() (uuid.UUID, bool) {
	switch payload := r.Payload.(type) {
	case *VenueDetails:
		return payload.VenueID, true
	case *TransportDetails:
		return payload.VehicleID, true
	case *BorrowDetails:
		return payload.ItemID, true
	}
	return uuid.Nil, false
}

// Interval returns the reservation interval for interval-bound types.
// Transport stores a single point in time; tripWindow derives the end.
func (r *Request) Interval(tripWindow time.Duration) (start, end time.Time, ok bool) {
	switch payload := r.Payload.(type) {
	case *VenueDetails:
		return payload.StartTime, payload.EndTime, true
	case *TransportDetails:
		return payload.DateNeeded, payload.DateNeeded.Add(tripWindow), true
	case *BorrowDetails:
		return payload.DateNeeded, payload.ReturnDate, true
	}
	return time.Time{}, time.Time{}, false
}

// ActionNeeded reports whether the request is approved and overdue to be
// started. Computed on read, never stored.
func (r *Request) ActionNeeded(now time.Time) bool {
	if r.Status != StatusApproved || r.Started() {
		return false
	}
	switch payload := r.Payload.(type) {
	case *VenueDetails:
		return now.After(payload.StartTime)
	case *TransportDetails:
		return now.After(payload.DateNeeded)
	case *BorrowDetails:
		return now.After(payload.DateNeeded)
	}
	return false
}

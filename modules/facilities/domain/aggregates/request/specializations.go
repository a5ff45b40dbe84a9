package request

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the nested work status on job requests. It progresses
// independently of the envelope status once the request is approved.
type JobStatus string

const (
	JobStatusPending          JobStatus = "PENDING"
	JobStatusInProgress       JobStatus = "IN_PROGRESS"
	JobStatusReworkInProgress JobStatus = "REWORK_IN_PROGRESS"
	JobStatusRejected         JobStatus = "REJECTED"
	JobStatusCompleted        JobStatus = "COMPLETED"
)

// ReworkAttempt is one logged rejection → restart → redo cycle on a job.
// The log is append-only; attempts are closed by setting Resolved.
type ReworkAttempt struct {
	ID              uuid.UUID
	RequestID       uuid.UUID
	RejectionReason string
	ReworkStartDate *time.Time
	ReworkEndDate   *time.Time
	Resolved        bool
	CreatedAt       time.Time
}

type JobDetails struct {
	JobType             string
	Location            string
	Description         string
	AssignedTo          *uuid.UUID
	Status              JobStatus
	VerifiedByRequester bool
	VerifiedByReviewer  bool
	ReworkAttempts      []ReworkAttempt
}

func (d *JobDetails) Type() Type { return TypeJob }

func (d *JobDetails) Started() bool { return d.Status != JobStatusPending }

// LatestUnresolvedAttempt returns the most recently created attempt that
// has not been resolved yet. Selection is deterministic: newest
// CreatedAt wins, ties broken by insertion order.
func (d *JobDetails) LatestUnresolvedAttempt() *ReworkAttempt {
	var latest *ReworkAttempt
	for i := range d.ReworkAttempts {
		attempt := &d.ReworkAttempts[i]
		if attempt.Resolved {
			continue
		}
		if latest == nil || !attempt.CreatedAt.Before(latest.CreatedAt) {
			latest = attempt
		}
	}
	return latest
}

type VenueDetails struct {
	VenueID           uuid.UUID
	StartTime         time.Time
	EndTime           time.Time
	ApprovedByHead    *bool
	InProgress        bool
	ActualStart       *time.Time
	ActualEnd         *time.Time
	SetupRequirements []string
}

func (d *VenueDetails) Type() Type { return TypeVenue }

func (d *VenueDetails) Started() bool { return d.InProgress || d.ActualStart != nil }

type TransportDetails struct {
	VehicleID              uuid.UUID
	DateNeeded             time.Time
	InProgress             bool
	ActualStart            *time.Time
	OdometerStart          *int64
	OdometerEnd            *int64
	TotalDistanceTravelled *int64
}

func (d *TransportDetails) Type() Type { return TypeTransport }

func (d *TransportDetails) Started() bool { return d.InProgress || d.ActualStart != nil }

type BorrowDetails struct {
	ItemID           uuid.UUID
	DateNeeded       time.Time
	ReturnDate       time.Time
	InProgress       bool
	IsOverdue        bool
	IsReturned       bool
	ActualReturnDate *time.Time
	ReturnCondition  *string
	IsLost           bool
	LostReason       *string
}

func (d *BorrowDetails) Type() Type { return TypeBorrow }

func (d *BorrowDetails) Started() bool { return d.InProgress || d.IsReturned || d.IsLost }

// SupplyLine is one withdrawn item and quantity on a supply request.
type SupplyLine struct {
	SupplyItemID uuid.UUID
	Quantity     int
}

type SupplyDetails struct {
	Items      []SupplyLine
	DateNeeded time.Time
}

func (d *SupplyDetails) Type() Type { return TypeSupply }

// Supplies have no usage phase; they are picked up in a single action.
func (d *SupplyDetails) Started() bool { return false }

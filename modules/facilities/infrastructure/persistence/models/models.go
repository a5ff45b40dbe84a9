package models

import (
	"time"

	"github.com/google/uuid"
)

type Request struct {
	ID                 uuid.UUID
	Type               string
	Status             string
	RequesterID        uuid.UUID
	DepartmentID       uuid.UUID
	ReviewerID         *uuid.UUID
	RejectionReason    *string
	CancellationReason *string
	OnHoldReason       *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
}

type JobRequest struct {
	RequestID           uuid.UUID
	JobType             string
	Location            string
	Description         string
	AssignedTo          *uuid.UUID
	Status              string
	VerifiedByRequester bool
	VerifiedByReviewer  bool
}

type VenueRequest struct {
	RequestID         uuid.UUID
	VenueID           uuid.UUID
	StartTime         time.Time
	EndTime           time.Time
	ApprovedByHead    *bool
	InProgress        bool
	ActualStart       *time.Time
	ActualEnd         *time.Time
	SetupRequirements []string
}

type TransportRequest struct {
	RequestID              uuid.UUID
	VehicleID              uuid.UUID
	DateNeeded             time.Time
	InProgress             bool
	ActualStart            *time.Time
	OdometerStart          *int64
	OdometerEnd            *int64
	TotalDistanceTravelled *int64
}

type ReturnableRequest struct {
	RequestID        uuid.UUID
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

type SupplyRequest struct {
	RequestID  uuid.UUID
	DateNeeded time.Time
}

type SupplyRequestItem struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	SupplyItemID uuid.UUID
	Quantity     int
}

type ReworkAttempt struct {
	ID              uuid.UUID
	RequestID       uuid.UUID
	RejectionReason string
	ReworkStartDate *time.Time
	ReworkEndDate   *time.Time
	Resolved        bool
	CreatedAt       time.Time
}

type Resource struct {
	ID           uuid.UUID
	Type         string
	Name         string
	DepartmentID uuid.UUID
	Status       string
	Quantity     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

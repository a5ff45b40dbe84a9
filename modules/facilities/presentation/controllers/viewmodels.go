package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
)

type reworkAttemptResponse struct {
	ID              uuid.UUID  `json:"id"`
	RejectionReason string     `json:"rejection_reason"`
	ReworkStartDate *time.Time `json:"rework_start_date,omitempty"`
	ReworkEndDate   *time.Time `json:"rework_end_date,omitempty"`
	Resolved        bool       `json:"resolved"`
	CreatedAt       time.Time  `json:"created_at"`
}

type jobResponse struct {
	JobType             string                  `json:"job_type"`
	Location            string                  `json:"location"`
	Description         string                  `json:"description"`
	AssignedTo          *uuid.UUID              `json:"assigned_to,omitempty"`
	Status              string                  `json:"status"`
	VerifiedByRequester bool                    `json:"verified_by_requester"`
	VerifiedByReviewer  bool                    `json:"verified_by_reviewer"`
	ReworkAttempts      []reworkAttemptResponse `json:"rework_attempts,omitempty"`
}

type venueResponse struct {
	VenueID           uuid.UUID  `json:"venue_id"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           time.Time  `json:"end_time"`
	ApprovedByHead    *bool      `json:"approved_by_head,omitempty"`
	InProgress        bool       `json:"in_progress"`
	ActualStart       *time.Time `json:"actual_start,omitempty"`
	ActualEnd         *time.Time `json:"actual_end,omitempty"`
	SetupRequirements []string   `json:"setup_requirements,omitempty"`
}

type transportResponse struct {
	VehicleID              uuid.UUID  `json:"vehicle_id"`
	DateNeeded             time.Time  `json:"date_needed"`
	InProgress             bool       `json:"in_progress"`
	ActualStart            *time.Time `json:"actual_start,omitempty"`
	OdometerStart          *int64     `json:"odometer_start,omitempty"`
	OdometerEnd            *int64     `json:"odometer_end,omitempty"`
	TotalDistanceTravelled *int64     `json:"total_distance_travelled,omitempty"`
}

type borrowResponse struct {
	ItemID           uuid.UUID  `json:"item_id"`
	DateNeeded       time.Time  `json:"date_needed"`
	ReturnDate       time.Time  `json:"return_date"`
	InProgress       bool       `json:"in_progress"`
	IsOverdue        bool       `json:"is_overdue"`
	IsReturned       bool       `json:"is_returned"`
	ActualReturnDate *time.Time `json:"actual_return_date,omitempty"`
	ReturnCondition  *string    `json:"return_condition,omitempty"`
	IsLost           bool       `json:"is_lost"`
	LostReason       *string    `json:"lost_reason,omitempty"`
}

type supplyLineResponse struct {
	SupplyItemID uuid.UUID `json:"supply_item_id"`
	Quantity     int       `json:"quantity"`
}

type supplyResponse struct {
	Items      []supplyLineResponse `json:"items"`
	DateNeeded time.Time            `json:"date_needed"`
}

type requestResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	RequesterID        uuid.UUID  `json:"requester_id"`
	DepartmentID       uuid.UUID  `json:"department_id"`
	ReviewerID         *uuid.UUID `json:"reviewer_id,omitempty"`
	RejectionReason    *string    `json:"rejection_reason,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	OnHoldReason       *string    `json:"on_hold_reason,omitempty"`
	ActionNeeded       bool       `json:"action_needed"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	Job       *jobResponse       `json:"job,omitempty"`
	Venue     *venueResponse     `json:"venue,omitempty"`
	Transport *transportResponse `json:"transport,omitempty"`
	Borrow    *borrowResponse    `json:"borrow,omitempty"`
	Supply    *supplyResponse    `json:"supply,omitempty"`
}

func toRequestResponse(req *request.Request) requestResponse {
	out := requestResponse{
		ID:                 req.ID,
		Type:               string(req.Type),
		Status:             string(req.Status),
		RequesterID:        req.RequesterID,
		DepartmentID:       req.DepartmentID,
		ReviewerID:         req.ReviewerID,
		RejectionReason:    req.RejectionReason,
		CancellationReason: req.CancellationReason,
		OnHoldReason:       req.OnHoldReason,
		ActionNeeded:       req.ActionNeeded(time.Now()),
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
		CompletedAt:        req.CompletedAt,
	}

	switch payload := req.Payload.(type) {
	case *request.JobDetails:
		job := &jobResponse{
			JobType:             payload.JobType,
			Location:            payload.Location,
			Description:         payload.Description,
			AssignedTo:          payload.AssignedTo,
			Status:              string(payload.Status),
			VerifiedByRequester: payload.VerifiedByRequester,
			VerifiedByReviewer:  payload.VerifiedByReviewer,
		}
		for _, attempt := range payload.ReworkAttempts {
			job.ReworkAttempts = append(job.ReworkAttempts, reworkAttemptResponse{
				ID:              attempt.ID,
				RejectionReason: attempt.RejectionReason,
				ReworkStartDate: attempt.ReworkStartDate,
				ReworkEndDate:   attempt.ReworkEndDate,
				Resolved:        attempt.Resolved,
				CreatedAt:       attempt.CreatedAt,
			})
		}
		out.Job = job
	case *request.VenueDetails:
		out.Venue = &venueResponse{
			VenueID:           payload.VenueID,
			StartTime:         payload.StartTime,
			EndTime:           payload.EndTime,
			ApprovedByHead:    payload.ApprovedByHead,
			InProgress:        payload.InProgress,
			ActualStart:       payload.ActualStart,
			ActualEnd:         payload.ActualEnd,
			SetupRequirements: payload.SetupRequirements,
		}
	case *request.TransportDetails:
		out.Transport = &transportResponse{
			VehicleID:              payload.VehicleID,
			DateNeeded:             payload.DateNeeded,
			InProgress:             payload.InProgress,
			ActualStart:            payload.ActualStart,
			OdometerStart:          payload.OdometerStart,
			OdometerEnd:            payload.OdometerEnd,
			TotalDistanceTravelled: payload.TotalDistanceTravelled,
		}
	case *request.BorrowDetails:
		out.Borrow = &borrowResponse{
			ItemID:           payload.ItemID,
			DateNeeded:       payload.DateNeeded,
			ReturnDate:       payload.ReturnDate,
			InProgress:       payload.InProgress,
			IsOverdue:        payload.IsOverdue,
			IsReturned:       payload.IsReturned,
			ActualReturnDate: payload.ActualReturnDate,
			ReturnCondition:  payload.ReturnCondition,
			IsLost:           payload.IsLost,
			LostReason:       payload.LostReason,
		}
	case *request.SupplyDetails:
		supply := &supplyResponse{DateNeeded: payload.DateNeeded}
		for _, line := range payload.Items {
			supply.Items = append(supply.Items, supplyLineResponse{
				SupplyItemID: line.SupplyItemID,
				Quantity:     line.Quantity,
			})
		}
		out.Supply = supply
	}
	return out
}

type resourceResponse struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	Name         string    `json:"name"`
	DepartmentID uuid.UUID `json:"department_id"`
	Status       string    `json:"status"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toResourceResponse(res *resource.Resource) resourceResponse {
	return resourceResponse{
		ID:           res.ID,
		Type:         string(res.Type),
		Name:         res.Name,
		DepartmentID: res.DepartmentID,
		Status:       string(res.Status),
		Quantity:     res.Quantity,
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
	}
}

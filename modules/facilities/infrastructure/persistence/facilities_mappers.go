package persistence

import (
	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
	"github.com/iota-uz/facilities/modules/facilities/infrastructure/persistence/models"
)

func toDBRequest(req *request.Request) *models.Request {
	return &models.Request{
		ID:                 req.ID,
		Type:               string(req.Type),
		Status:             string(req.Status),
		RequesterID:        req.RequesterID,
		DepartmentID:       req.DepartmentID,
		ReviewerID:         req.ReviewerID,
		RejectionReason:    req.RejectionReason,
		CancellationReason: req.CancellationReason,
		OnHoldReason:       req.OnHoldReason,
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
		CompletedAt:        req.CompletedAt,
	}
}

func toDomainRequest(row *models.Request, payload request.Specialization) *request.Request {
	return &request.Request{
		ID:                 row.ID,
		Type:               request.Type(row.Type),
		Status:             request.Status(row.Status),
		RequesterID:        row.RequesterID,
		DepartmentID:       row.DepartmentID,
		ReviewerID:         row.ReviewerID,
		RejectionReason:    row.RejectionReason,
		CancellationReason: row.CancellationReason,
		OnHoldReason:       row.OnHoldReason,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		CompletedAt:        row.CompletedAt,
		Payload:            payload,
	}
}

func toDomainJob(row *models.JobRequest, attempts []models.ReworkAttempt) *request.JobDetails {
	out := &request.JobDetails{
		JobType:             row.JobType,
		Location:            row.Location,
		Description:         row.Description,
		AssignedTo:          row.AssignedTo,
		Status:              request.JobStatus(row.Status),
		VerifiedByRequester: row.VerifiedByRequester,
		VerifiedByReviewer:  row.VerifiedByReviewer,
	}
	for _, attempt := range attempts {
		out.ReworkAttempts = append(out.ReworkAttempts, request.ReworkAttempt{
			ID:              attempt.ID,
			RequestID:       attempt.RequestID,
			RejectionReason: attempt.RejectionReason,
			ReworkStartDate: attempt.ReworkStartDate,
			ReworkEndDate:   attempt.ReworkEndDate,
			Resolved:        attempt.Resolved,
			CreatedAt:       attempt.CreatedAt,
		})
	}
	return out
}

func toDomainVenue(row *models.VenueRequest) *request.VenueDetails {
	return &request.VenueDetails{
		VenueID:           row.VenueID,
		StartTime:         row.StartTime,
		EndTime:           row.EndTime,
		ApprovedByHead:    row.ApprovedByHead,
		InProgress:        row.InProgress,
		ActualStart:       row.ActualStart,
		ActualEnd:         row.ActualEnd,
		SetupRequirements: row.SetupRequirements,
	}
}

func toDomainTransport(row *models.TransportRequest) *request.TransportDetails {
	return &request.TransportDetails{
		VehicleID:              row.VehicleID,
		DateNeeded:             row.DateNeeded,
		InProgress:             row.InProgress,
		ActualStart:            row.ActualStart,
		OdometerStart:          row.OdometerStart,
		OdometerEnd:            row.OdometerEnd,
		TotalDistanceTravelled: row.TotalDistanceTravelled,
	}
}

func toDomainBorrow(row *models.ReturnableRequest) *request.BorrowDetails {
	return &request.BorrowDetails{
		ItemID:           row.ItemID,
		DateNeeded:       row.DateNeeded,
		ReturnDate:       row.ReturnDate,
		InProgress:       row.InProgress,
		IsOverdue:        row.IsOverdue,
		IsReturned:       row.IsReturned,
		ActualReturnDate: row.ActualReturnDate,
		ReturnCondition:  row.ReturnCondition,
		IsLost:           row.IsLost,
		LostReason:       row.LostReason,
	}
}

func toDomainSupply(row *models.SupplyRequest, items []models.SupplyRequestItem) *request.SupplyDetails {
	out := &request.SupplyDetails{DateNeeded: row.DateNeeded}
	for _, item := range items {
		out.Items = append(out.Items, request.SupplyLine{
			SupplyItemID: item.SupplyItemID,
			Quantity:     item.Quantity,
		})
	}
	return out
}

func toDBResource(res *resource.Resource) *models.Resource {
	return &models.Resource{
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

func toDomainResource(row *models.Resource) *resource.Resource {
	return &resource.Resource{
		ID:           row.ID,
		Type:         resource.Type(row.Type),
		Name:         row.Name,
		DepartmentID: row.DepartmentID,
		Status:       resource.Status(row.Status),
		Quantity:     row.Quantity,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

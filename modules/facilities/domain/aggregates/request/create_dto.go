package request

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iota-uz/facilities/pkg/constants"
	"github.com/iota-uz/facilities/pkg/serrors"
)

type JobCreateDTO struct {
	JobType     string `json:"job_type" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type VenueCreateDTO struct {
	VenueID           uuid.UUID `json:"venue_id" validate:"required"`
	StartTime         time.Time `json:"start_time" validate:"required"`
	EndTime           time.Time `json:"end_time" validate:"required"`
	SetupRequirements []string  `json:"setup_requirements"`
}

type TransportCreateDTO struct {
	VehicleID  uuid.UUID `json:"vehicle_id" validate:"required"`
	DateNeeded time.Time `json:"date_needed" validate:"required"`
}

type BorrowCreateDTO struct {
	ItemID     uuid.UUID `json:"item_id" validate:"required"`
	DateNeeded time.Time `json:"date_needed" validate:"required"`
	ReturnDate time.Time `json:"return_date" validate:"required"`
}

type SupplyLineDTO struct {
	SupplyItemID uuid.UUID `json:"supply_item_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,gt=0"`
}

type SupplyCreateDTO struct {
	Items      []SupplyLineDTO `json:"items" validate:"required,min=1,dive"`
	DateNeeded time.Time       `json:"date_needed" validate:"required"`
}

// CreateDTO is the creation payload for every request type: the type tag
// plus exactly one matching sub-payload.
type CreateDTO struct {
	Type      string              `json:"type" validate:"required"`
	Job       *JobCreateDTO       `json:"job,omitempty"`
	Venue     *VenueCreateDTO     `json:"venue,omitempty"`
	Transport *TransportCreateDTO `json:"transport,omitempty"`
	Borrow    *BorrowCreateDTO    `json:"borrow,omitempty"`
	Supply    *SupplyCreateDTO    `json:"supply,omitempty"`
}

func (d *CreateDTO) Normalize() {
	d.Type = strings.ToUpper(strings.TrimSpace(d.Type))
	if d.Job != nil {
		d.Job.JobType = strings.TrimSpace(d.Job.JobType)
		d.Job.Location = strings.TrimSpace(d.Job.Location)
		d.Job.Description = strings.TrimSpace(d.Job.Description)
	}
}

// Ok validates the DTO and returns field errors when it is malformed.
func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()

	out := make(serrors.ValidationErrors)

	if !Type(d.Type).Valid() {
		out["Type"] = serrors.NewInvalidFieldError("Type", "unknown request type", "Facilities.Fields.Type")
		return out, false
	}

	payload := d.payloadForType()
	if payload == nil {
		out["Type"] = serrors.NewInvalidFieldError("Type", "missing payload for request type", "Facilities.Fields.Type")
		return out, false
	}
	if d.populatedPayloads() != 1 {
		out["Type"] = serrors.NewInvalidFieldError("Type", "exactly one payload must be provided", "Facilities.Fields.Type")
		return out, false
	}

	if errs := constants.Validate.Struct(payload); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), fieldLocaleKey) {
			out[field] = err
		}
		return out, false
	}

	switch Type(d.Type) {
	case TypeVenue:
		if !d.Venue.StartTime.Before(d.Venue.EndTime) {
			out["EndTime"] = serrors.NewInvalidFieldError("EndTime", "must be after start time", "Facilities.Fields.EndTime")
		}
	case TypeBorrow:
		if !d.Borrow.DateNeeded.Before(d.Borrow.ReturnDate) {
			out["ReturnDate"] = serrors.NewInvalidFieldError("ReturnDate", "must be after the pickup time", "Facilities.Fields.ReturnDate")
		}
	}

	return out, len(out) == 0
}

// ToEntity builds the pending request for the acting requester.
func (d *CreateDTO) ToEntity(requesterID, departmentID uuid.UUID) (*Request, error) {
	if errs, ok := d.Ok(); !ok {
		for _, err := range errs {
			return nil, ErrValidation.WithDetails(err.Message)
		}
		return nil, ErrValidation
	}

	var payload Specialization
	switch Type(d.Type) {
	case TypeJob:
		payload = &JobDetails{
			JobType:     d.Job.JobType,
			Location:    d.Job.Location,
			Description: d.Job.Description,
			Status:      JobStatusPending,
		}
	case TypeVenue:
		payload = &VenueDetails{
			VenueID:           d.Venue.VenueID,
			StartTime:         d.Venue.StartTime,
			EndTime:           d.Venue.EndTime,
			SetupRequirements: d.Venue.SetupRequirements,
		}
	case TypeTransport:
		payload = &TransportDetails{
			VehicleID:  d.Transport.VehicleID,
			DateNeeded: d.Transport.DateNeeded,
		}
	case TypeBorrow:
		payload = &BorrowDetails{
			ItemID:     d.Borrow.ItemID,
			DateNeeded: d.Borrow.DateNeeded,
			ReturnDate: d.Borrow.ReturnDate,
		}
	case TypeSupply:
		lines := make([]SupplyLine, 0, len(d.Supply.Items))
		for _, item := range d.Supply.Items {
			lines = append(lines, SupplyLine{SupplyItemID: item.SupplyItemID, Quantity: item.Quantity})
		}
		payload = &SupplyDetails{Items: lines, DateNeeded: d.Supply.DateNeeded}
	}

	return New(requesterID, departmentID, payload), nil
}

func (d *CreateDTO) payloadForType() any {
	switch Type(d.Type) {
	case TypeJob:
		if d.Job != nil {
			return d.Job
		}
	case TypeVenue:
		if d.Venue != nil {
			return d.Venue
		}
	case TypeTransport:
		if d.Transport != nil {
			return d.Transport
		}
	case TypeBorrow:
		if d.Borrow != nil {
			return d.Borrow
		}
	case TypeSupply:
		if d.Supply != nil {
			return d.Supply
		}
	}
	return nil
}

func (d *CreateDTO) populatedPayloads() int {
	n := 0
	for _, present := range []bool{
		d.Job != nil, d.Venue != nil, d.Transport != nil, d.Borrow != nil, d.Supply != nil,
	} {
		if present {
			n++
		}
	}
	return n
}

func fieldLocaleKey(field string) string {
	return "Facilities.Fields." + field
}

package request_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }

func TestReservation_OverlapsHalfOpen(t *testing.T) {
	r := request.Reservation{Start: at(10), End: at(12)}

	require.True(t, r.Overlaps(at(11), at(13)))
	require.True(t, r.Overlaps(at(9), at(11)))
	require.True(t, r.Overlaps(at(10), at(12)))
	require.True(t, r.Overlaps(at(9), at(13)))

	// Back-to-back bookings touch but do not overlap.
	require.False(t, r.Overlaps(at(12), at(14)))
	require.False(t, r.Overlaps(at(8), at(10)))
}

func TestRequest_IntervalPerType(t *testing.T) {
	window := 8 * time.Hour

	venue := request.New(uuid.New(), uuid.New(), &request.VenueDetails{
		VenueID: uuid.New(), StartTime: at(10), EndTime: at(12),
	})
	start, end, ok := venue.Interval(window)
	require.True(t, ok)
	require.Equal(t, at(10), start)
	require.Equal(t, at(12), end)

	transport := request.New(uuid.New(), uuid.New(), &request.TransportDetails{
		VehicleID: uuid.New(), DateNeeded: at(9),
	})
	start, end, ok = transport.Interval(window)
	require.True(t, ok)
	require.Equal(t, at(9), start)
	require.Equal(t, at(17), end)

	supply := request.New(uuid.New(), uuid.New(), &request.SupplyDetails{
		Items:      []request.SupplyLine{{SupplyItemID: uuid.New(), Quantity: 3}},
		DateNeeded: at(9),
	})
	_, _, ok = supply.Interval(window)
	require.False(t, ok)
}

func TestRequest_ActionNeeded(t *testing.T) {
	transport := request.New(uuid.New(), uuid.New(), &request.TransportDetails{
		VehicleID: uuid.New(), DateNeeded: at(9),
	})
	transport.Status = request.StatusApproved

	require.False(t, transport.ActionNeeded(at(8)))
	require.True(t, transport.ActionNeeded(at(10)))

	transport.Transport().InProgress = true
	require.False(t, transport.ActionNeeded(at(10)))

	transport.Status = request.StatusPending
	require.False(t, transport.ActionNeeded(at(10)))
}

func TestJobDetails_LatestUnresolvedAttempt(t *testing.T) {
	job := &request.JobDetails{Status: request.JobStatusRejected}
	require.Nil(t, job.LatestUnresolvedAttempt())

	first := request.ReworkAttempt{ID: uuid.New(), RejectionReason: "sloppy paint", Resolved: true, CreatedAt: at(1)}
	second := request.ReworkAttempt{ID: uuid.New(), RejectionReason: "wrong color", CreatedAt: at(2)}
	third := request.ReworkAttempt{ID: uuid.New(), RejectionReason: "still wrong", CreatedAt: at(3)}
	job.ReworkAttempts = []request.ReworkAttempt{third, first, second}

	latest := job.LatestUnresolvedAttempt()
	require.NotNil(t, latest)
	require.Equal(t, third.ID, latest.ID)

	job.ReworkAttempts = []request.ReworkAttempt{first}
	require.Nil(t, job.LatestUnresolvedAttempt())
}

func TestCreateDTO_ValidationAndEntity(t *testing.T) {
	requesterID, departmentID := uuid.New(), uuid.New()

	dto := &request.CreateDTO{
		Type: "venue",
		Venue: &request.VenueCreateDTO{
			VenueID:   uuid.New(),
			StartTime: at(10),
			EndTime:   at(12),
		},
	}
	errs, ok := dto.Ok()
	require.True(t, ok, "unexpected errors: %v", errs.Flatten())

	req, err := dto.ToEntity(requesterID, departmentID)
	require.NoError(t, err)
	require.Equal(t, request.TypeVenue, req.Type)
	require.Equal(t, request.StatusPending, req.Status)
	require.Equal(t, requesterID, req.RequesterID)
	require.NotNil(t, req.Venue())

	// Inverted interval.
	dto.Venue.StartTime, dto.Venue.EndTime = at(12), at(10)
	errs, ok = dto.Ok()
	require.False(t, ok)
	require.Contains(t, errs, "EndTime")

	// Unknown type.
	bad := &request.CreateDTO{Type: "LEASE"}
	_, ok = bad.Ok()
	require.False(t, ok)

	// Type without matching payload.
	missing := &request.CreateDTO{Type: "JOB"}
	_, ok = missing.Ok()
	require.False(t, ok)

	// Two payloads at once.
	double := &request.CreateDTO{
		Type: "JOB",
		Job:  &request.JobCreateDTO{JobType: "repair", Location: "hall", Description: "fix door"},
		Supply: &request.SupplyCreateDTO{
			Items:      []request.SupplyLineDTO{{SupplyItemID: uuid.New(), Quantity: 1}},
			DateNeeded: at(9),
		},
	}
	_, ok = double.Ok()
	require.False(t, ok)

	// Non-positive supply quantity.
	supply := &request.CreateDTO{
		Type: "SUPPLY",
		Supply: &request.SupplyCreateDTO{
			Items:      []request.SupplyLineDTO{{SupplyItemID: uuid.New(), Quantity: 0}},
			DateNeeded: at(9),
		},
	}
	_, ok = supply.Ok()
	require.False(t, ok)
}

package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
)

func (e *testEnv) createApprovedTransport(t *testing.T, vehicleID uuid.UUID) *request.Request {
	t.Helper()
	created, err := e.requestSvc.Create(e.ctx(e.requester), &request.CreateDTO{
		Type:      "TRANSPORT",
		Transport: &request.TransportCreateDTO{VehicleID: vehicleID, DateNeeded: at(9)},
	})
	require.NoError(t, err)
	e.approveRequest(t, created.ID)
	return created
}

func TestFulfillmentService_TransportTrip(t *testing.T) {
	env := newTestEnv()
	vehicle := env.resources.add(&resource.Resource{
		Type: resource.TypeVehicle, Name: "van 1", DepartmentID: env.dept,
	})
	created := env.createApprovedTransport(t, vehicle.ID)
	ctx := env.ctx(env.reviewer)

	started, err := env.fulfillSvc.StartTransport(ctx, created.ID, 1000)
	require.NoError(t, err)
	transport := started.Transport()
	require.True(t, transport.InProgress)
	require.NotNil(t, transport.ActualStart)
	require.EqualValues(t, 1000, *transport.OdometerStart)

	locked, err := env.resources.GetByID(ctx, vehicle.ID)
	require.NoError(t, err)
	require.Equal(t, resource.StatusInUse, locked.Status)

	// The return reading must exceed the departure reading.
	_, err = env.fulfillSvc.CompleteTransport(ctx, created.ID, 1000)
	require.ErrorIs(t, err, request.ErrValidation)

	completed, err := env.fulfillSvc.CompleteTransport(ctx, created.ID, 1050)
	require.NoError(t, err)
	transport = completed.Transport()
	require.False(t, transport.InProgress)
	require.EqualValues(t, 1050, *transport.OdometerEnd)
	require.EqualValues(t, 50, *transport.TotalDistanceTravelled)
	require.Equal(t, request.StatusCompleted, completed.Status)

	released, err := env.resources.GetByID(ctx, vehicle.ID)
	require.NoError(t, err)
	require.Equal(t, resource.StatusAvailable, released.Status)

	// The distance is computed once; the trip cannot complete twice.
	_, err = env.fulfillSvc.CompleteTransport(ctx, created.ID, 1100)
	require.ErrorIs(t, err, request.ErrInvalidTransition)

	// The failed repeat leaves the completed trip untouched.
	unchanged, err := env.requestSvc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	transport = unchanged.Transport()
	require.EqualValues(t, 1050, *transport.OdometerEnd)
	require.EqualValues(t, 50, *transport.TotalDistanceTravelled)
	require.Equal(t, request.StatusCompleted, unchanged.Status)

	still, err := env.resources.GetByID(ctx, vehicle.ID)
	require.NoError(t, err)
	require.Equal(t, resource.StatusAvailable, still.Status)
}

func TestFulfillmentService_TransportStartRules(t *testing.T) {
	env := newTestEnv()
	vehicle := env.resources.add(&resource.Resource{
		Type: resource.TypeVehicle, Name: "van 2", DepartmentID: env.dept,
	})
	created, err := env.requestSvc.Create(env.ctx(env.requester), &request.CreateDTO{
		Type:      "TRANSPORT",
		Transport: &request.TransportCreateDTO{VehicleID: vehicle.ID, DateNeeded: at(9)},
	})
	require.NoError(t, err)
	ctx := env.ctx(env.reviewer)

	// No trip before approval.
	_, err = env.fulfillSvc.StartTransport(ctx, created.ID, 1000)
	require.ErrorIs(t, err, request.ErrInvalidTransition)

	env.approveRequest(t, created.ID)
	_, err = env.fulfillSvc.StartTransport(ctx, created.ID, -5)
	require.ErrorIs(t, err, request.ErrValidation)

	_, err = env.fulfillSvc.StartTransport(ctx, created.ID, 1000)
	require.NoError(t, err)
	_, err = env.fulfillSvc.StartTransport(ctx, created.ID, 1001)
	require.ErrorIs(t, err, request.ErrInvalidTransition)
}

func TestFulfillmentService_BorrowReturnFlow(t *testing.T) {
	env := newTestEnv()
	item := env.resources.add(&resource.Resource{
		Type: resource.TypeItem, Name: "projector", DepartmentID: env.dept,
	})
	created, err := env.requestSvc.Create(env.ctx(env.requester), &request.CreateDTO{
		Type: "BORROW",
		Borrow: &request.BorrowCreateDTO{
			ItemID:     item.ID,
			DateNeeded: at(9),
			ReturnDate: at(17),
		},
	})
	require.NoError(t, err)
	env.approveRequest(t, created.ID)
	ctx := env.ctx(env.reviewer)

	picked, err := env.fulfillSvc.PickupItem(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, picked.Borrow().InProgress)
	out, err := env.resources.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, resource.StatusInUse, out.Status)

	// A return without a condition note is rejected.
	_, err = env.fulfillSvc.ReturnItem(ctx, created.ID, "   ")
	require.ErrorIs(t, err, request.ErrValidation)

	returned, err := env.fulfillSvc.ReturnItem(ctx, created.ID, "scratched casing")
	require.NoError(t, err)
	borrow := returned.Borrow()
	require.True(t, borrow.IsReturned)
	require.False(t, borrow.InProgress)
	require.NotNil(t, borrow.ActualReturnDate)
	require.Equal(t, "scratched casing", *borrow.ReturnCondition)
	require.Equal(t, request.StatusCompleted, returned.Status)

	// The agreed return time is long past, so the borrow is overdue.
	require.True(t, borrow.IsOverdue)

	out, err = env.resources.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, resource.StatusAvailable, out.Status)
}

func TestFulfillmentService_LostItem(t *testing.T) {
	env := newTestEnv()
	item := env.resources.add(&resource.Resource{
		Type: resource.TypeItem, Name: "drill", DepartmentID: env.dept,
	})
	created, err := env.requestSvc.Create(env.ctx(env.requester), &request.CreateDTO{
		Type: "BORROW",
		Borrow: &request.BorrowCreateDTO{
			ItemID:     item.ID,
			DateNeeded: at(9),
			ReturnDate: at(17),
		},
	})
	require.NoError(t, err)
	env.approveRequest(t, created.ID)
	ctx := env.ctx(env.reviewer)

	_, err = env.fulfillSvc.PickupItem(ctx, created.ID)
	require.NoError(t, err)

	_, err = env.fulfillSvc.ReportItemLost(ctx, created.ID, "")
	require.ErrorIs(t, err, request.ErrValidation)

	lost, err := env.fulfillSvc.ReportItemLost(ctx, created.ID, "left at the off-site event")
	require.NoError(t, err)
	require.True(t, lost.Borrow().IsLost)
	require.Equal(t, request.StatusCompleted, lost.Status)

	out, err := env.resources.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, resource.StatusUnavailable, out.Status)
}

func TestFulfillmentService_VenueFlow(t *testing.T) {
	env := newTestEnv()
	venue := env.addVenue(t)
	created, err := env.requestSvc.Create(env.ctx(env.requester), venueDTO(venue.ID, at(10), at(12)))
	require.NoError(t, err)
	granted := true
	_, err = env.requestSvc.SetVenueHeadDecision(env.ctx(env.approver), created.ID, granted, "")
	require.NoError(t, err)
	env.approveRequest(t, created.ID)
	ctx := env.ctx(env.reviewer)

	// Completion before start is impossible.
	_, err = env.fulfillSvc.CompleteVenue(ctx, created.ID)
	require.ErrorIs(t, err, request.ErrInvalidTransition)

	started, err := env.fulfillSvc.StartVenue(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, started.Venue().InProgress)
	require.NotNil(t, started.Venue().ActualStart)

	completed, err := env.fulfillSvc.CompleteVenue(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, completed.Venue().InProgress)
	require.NotNil(t, completed.Venue().ActualEnd)
	require.Equal(t, request.StatusCompleted, completed.Status)
}

func TestFulfillmentService_SupplyPickup(t *testing.T) {
	env := newTestEnv()
	stock := env.resources.add(&resource.Resource{
		Type: resource.TypeSupply, Name: "whiteboard markers", DepartmentID: env.dept, Quantity: 10,
	})
	created, err := env.requestSvc.Create(env.ctx(env.requester), &request.CreateDTO{
		Type: "SUPPLY",
		Supply: &request.SupplyCreateDTO{
			Items:      []request.SupplyLineDTO{{SupplyItemID: stock.ID, Quantity: 4}},
			DateNeeded: at(9),
		},
	})
	require.NoError(t, err)
	env.approveRequest(t, created.ID)
	ctx := env.ctx(env.reviewer)

	completed, err := env.fulfillSvc.PickupSupplies(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, request.StatusCompleted, completed.Status)

	out, err := env.resources.GetByID(ctx, stock.ID)
	require.NoError(t, err)
	require.Equal(t, 6, out.Quantity)
}

func TestFulfillmentService_SupplyInsufficientStock(t *testing.T) {
	env := newTestEnv()
	stock := env.resources.add(&resource.Resource{
		Type: resource.TypeSupply, Name: "batteries", DepartmentID: env.dept, Quantity: 2,
	})
	created, err := env.requestSvc.Create(env.ctx(env.requester), &request.CreateDTO{
		Type: "SUPPLY",
		Supply: &request.SupplyCreateDTO{
			Items:      []request.SupplyLineDTO{{SupplyItemID: stock.ID, Quantity: 5}},
			DateNeeded: at(9),
		},
	})
	require.NoError(t, err)
	env.approveRequest(t, created.ID)

	_, err = env.fulfillSvc.PickupSupplies(env.ctx(env.reviewer), created.ID)
	require.ErrorIs(t, err, request.ErrValidation)

	// The envelope stays APPROVED and the stock untouched.
	out, err := env.requestSvc.GetByID(env.ctx(env.reviewer), created.ID)
	require.NoError(t, err)
	require.Equal(t, request.StatusApproved, out.Status)
	left, err := env.resources.GetByID(env.ctx(env.reviewer), stock.ID)
	require.NoError(t, err)
	require.Equal(t, 2, left.Quantity)
}

func TestFulfillmentService_RequiresExecuteCapability(t *testing.T) {
	env := newTestEnv()
	vehicle := env.resources.add(&resource.Resource{
		Type: resource.TypeVehicle, Name: "van 3", DepartmentID: env.dept,
	})
	created := env.createApprovedTransport(t, vehicle.ID)

	_, err := env.fulfillSvc.StartTransport(env.ctx(env.requester), created.ID, 1000)
	require.ErrorIs(t, err, request.ErrForbidden)
}

// Overdue computation depends on the wall clock relative to the agreed
// return time; the borrow fixtures in this file all sit in the past, so
// sanity-check the comparison in isolation with a future return date.
func TestFulfillmentService_ReturnBeforeDeadlineNotOverdue(t *testing.T) {
	env := newTestEnv()
	item := env.resources.add(&resource.Resource{
		Type: resource.TypeItem, Name: "camera", DepartmentID: env.dept,
	})
	created, err := env.requestSvc.Create(env.ctx(env.requester), &request.CreateDTO{
		Type: "BORROW",
		Borrow: &request.BorrowCreateDTO{
			ItemID:     item.ID,
			DateNeeded: time.Now().Add(-time.Hour),
			ReturnDate: time.Now().Add(24 * time.Hour),
		},
	})
	require.NoError(t, err)
	env.approveRequest(t, created.ID)
	ctx := env.ctx(env.reviewer)

	_, err = env.fulfillSvc.PickupItem(ctx, created.ID)
	require.NoError(t, err)
	returned, err := env.fulfillSvc.ReturnItem(ctx, created.ID, "good condition")
	require.NoError(t, err)
	require.False(t, returned.Borrow().IsOverdue)
}

package request

// Status is the shared lifecycle status of a request envelope,
// independent of the request type.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusReviewed  Status = "REVIEWED"
	StatusApproved  Status = "APPROVED"
	StatusOnHold    Status = "ON_HOLD"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Terminal reports whether no further transitions may leave the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusApproved, StatusOnHold,
		StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ActiveReservationStatuses are the envelope statuses whose reservations
// block overlapping bookings. ON_HOLD is deliberately excluded: a held
// request releases its claim on the resource until it is resumed.
var ActiveReservationStatuses = []Status{StatusPending, StatusReviewed, StatusApproved}

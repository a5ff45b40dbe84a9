package request

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is the derived view used for conflict evaluation: a
// resource claimed for a half-open interval by an active request. It is
// never stored separately; it is projected from specialization records.
type Reservation struct {
	RequestID  uuid.UUID
	ResourceID uuid.UUID
	Start      time.Time
	End        time.Time
}

// Overlaps tests half-open interval overlap: [Start, End) against
// [start, end). Back-to-back bookings sharing a boundary do not clash.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && start.Before(r.End)
}

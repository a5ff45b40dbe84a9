package resource

import (
	"time"

	"github.com/google/uuid"
)

// Type distinguishes the reservable and consumable resource categories.
type Type string

const (
	TypeVenue   Type = "VENUE"
	TypeVehicle Type = "VEHICLE"
	TypeItem    Type = "ITEM"
	TypeSupply  Type = "SUPPLY"
)

func (t Type) Valid() bool {
	switch t {
	case TypeVenue, TypeVehicle, TypeItem, TypeSupply:
		return true
	}
	return false
}

// Status is the live availability state of an exclusive resource.
// Supplies are counted, not flagged; their status stays AVAILABLE while
// Quantity > 0.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusInUse       Status = "IN_USE"
	StatusUnavailable Status = "UNAVAILABLE"
)

// Resource is a master-data record: a venue, vehicle, borrowable item or
// counted supply stock owned by a department.
type Resource struct {
	ID           uuid.UUID
	Type         Type
	Name         string
	DepartmentID uuid.UUID
	Status       Status
	// Quantity is the current stock for TypeSupply and 1 otherwise.
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservable reports whether the resource takes interval reservations.
func (r *Resource) Reservable() bool {
	switch r.Type {
	case TypeVenue, TypeVehicle, TypeItem:
		return true
	}
	return false
}

package request

// Type discriminates the five request kinds. Exactly one specialization
// payload exists per request and must match this tag.
type Type string

const (
	TypeJob       Type = "JOB"
	TypeVenue     Type = "VENUE"
	TypeTransport Type = "TRANSPORT"
	TypeBorrow    Type = "BORROW"
	TypeSupply    Type = "SUPPLY"
)

func (t Type) Valid() bool {
	switch t {
	case TypeJob, TypeVenue, TypeTransport, TypeBorrow, TypeSupply:
		return true
	}
	return false
}

// Specialization is the type-specific payload of a request. Started
// reports whether resource use has begun, which blocks holds, cancels
// and interval edits.
type Specialization interface {
	Type() Type
	Started() bool
}

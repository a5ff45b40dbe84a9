package authz

import (
	"strings"

	"github.com/google/uuid"
)

const (
	rolePrefix       = "role"
	subjectSeparator = ":"
	// WildcardDomain grants a capability in every department.
	WildcardDomain = "*"
	// WildcardAction grants every action on an object.
	WildcardAction = "*"
)

// Request encapsulates the parameters of a single authorization check:
// who (subject), where (domain, a department scope), what (object) and
// how (action).
type Request struct {
	Subject string
	Domain  string
	Object  string
	Action  string
}

func NewRequest(subject, domain, object, action string) Request {
	return Request{
		Subject: subject,
		Domain:  domain,
		Object:  object,
		Action:  NormalizeAction(action),
	}
}

// Grant is a policy row: a role may perform an action on an object within
// a domain. Domain and Action may be wildcards.
type Grant struct {
	Role   string
	Domain string
	Object string
	Action string
}

// SubjectForRole returns the canonical identifier for a role subject.
func SubjectForRole(roleSlug string) string {
	roleSlug = strings.TrimSpace(roleSlug)
	if roleSlug == "" {
		roleSlug = "unnamed"
	}
	if strings.HasPrefix(roleSlug, rolePrefix+subjectSeparator) {
		return roleSlug
	}
	return rolePrefix + subjectSeparator + strings.ToLower(roleSlug)
}

// DomainFromDepartment converts a department ID into a policy domain.
func DomainFromDepartment(id uuid.UUID) string {
	if id == uuid.Nil {
		return WildcardDomain
	}
	return id.String()
}

// NormalizeAction lowers and trims an action verb.
func NormalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return WildcardAction
	}
	return action
}

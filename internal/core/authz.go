package core

import "fmt"

// Role is a capability level. Higher roles include the lower ones.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleOperator:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// ParseRole validates a role name coming from storage or a token.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if r.rank() == 0 {
		return "", &ValidationError{Message: fmt.Sprintf("unknown role %q", s)}
	}
	return r, nil
}

// Actor identifies who performs an operation. It is threaded explicitly into every
// mutating call and ends up on the audit entry.
type Actor struct {
	UserID int
	Role   Role
}

// SystemActor is used by batch jobs started outside a user session.
var SystemActor = Actor{UserID: 0, Role: RoleAdmin}

// Authorize returns an UnauthorizedError unless the actor holds at least min.
func (a Actor) Authorize(action string, min Role) error {
	if a.Role.rank() < min.rank() {
		return &UnauthorizedError{Action: action, Required: min, Actual: a.Role}
	}
	return nil
}

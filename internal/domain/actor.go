package domain

// Role identifies which side of the marketplace an actor acts for.
type Role string

// List of possible actor roles. RoleService marks trusted internal callers
// (payment intake, timeout resolver) that bypass identity ownership checks.
const (
	RoleBuyer   Role = "buyer"
	RoleSeller  Role = "seller"
	RoleDriver  Role = "driver"
	RoleService Role = "service"
)

// Valid checks if the Role is one of the defined values.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleDriver, RoleService:
		return true
	}
	return false
}

// Actor is an authenticated caller.
type Actor struct {
	ID   string
	Role Role
}

// Is reports whether the actor holds the given role.
func (a Actor) Is(r Role) bool { return a.Role == r }

// Owns reports whether the actor's identity matches id, or the actor is a
// trusted internal caller.
func (a Actor) Owns(id string) bool {
	return a.Role == RoleService || a.ID == id
}

package model

const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleSystem = "system"
)

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	UserID string
	Role   string
}

// IsSystem reports whether the actor is an automated process rather than a person.
func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SystemActor is used by background workers.
var SystemActor = Actor{UserID: "system", Role: RoleSystem}

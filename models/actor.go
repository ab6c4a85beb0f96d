package models

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor is the authenticated staff user on whose behalf an operation runs.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

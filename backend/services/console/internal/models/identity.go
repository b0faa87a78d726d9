package models

import "strings"

// Role gates which panels and actions a session sees.
type Role string

const (
	RoleNone  Role = ""
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps the backend user_type onto a Role.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin
	case "user":
		return RoleUser
	default:
		return RoleNone
	}
}

// Identity is the authenticated principal of a session.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is shared by self sign-up and admin user creation.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"nome"`
	Surname  string `json:"cognome"`
	Phone    string `json:"telefono"`
	Address  string `json:"indirizzo"`
	City     string `json:"citta"`
}

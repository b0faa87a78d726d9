package view

import "colonnine/backend/services/console/internal/models"

// AuthMode selects which auth form is shown.
type AuthMode string

const (
	AuthModeLogin    AuthMode = "login"
	AuthModeRegister AuthMode = "register"
)

// Panels is the visibility of each page section.
type Panels struct {
	AuthForms      bool     `json:"auth_forms"`
	AuthMode       AuthMode `json:"auth_mode,omitempty"`
	IdentityBanner bool     `json:"identity_banner"`
	Admin          bool     `json:"admin"`
	User           bool     `json:"user"`
	Statistics     bool     `json:"statistics"`
}

// ProjectPanels is a pure function of the session. Statistics is always hidden here; it is
// opened only by an explicit load. A signed in principal with an unrecognised role gets the
// banner and nothing else.
func ProjectPanels(session *models.Identity, mode AuthMode) Panels {
	if session == nil {
		if mode != AuthModeRegister {
			mode = AuthModeLogin
		}
		return Panels{AuthForms: true, AuthMode: mode}
	}
	return Panels{
		IdentityBanner: true,
		Admin:          session.Role == models.RoleAdmin,
		User:           session.Role == models.RoleUser,
	}
}

// Banner is the signed in identity strip.
type Banner struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func projectBanner(session *models.Identity) *Banner {
	if session == nil {
		return nil
	}
	role := string(session.Role)
	if role == "" {
		role = "-"
	}
	return &Banner{Name: session.Name, Role: "Tipo: " + role}
}

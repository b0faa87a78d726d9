package clients

import (
	"context"
	"net/http"
	"strings"

	"colonnine/backend/services/console/internal/models"
)

// AuthClient covers login, registration and session checks.
type AuthClient struct {
	base *BaseClient
}

// NewAuthClient returns client.
func NewAuthClient(base *BaseClient) *AuthClient {
	return &AuthClient{base: base}
}

type userPayload struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	UserType string `json:"user_type"`
}

type loginResponse struct {
	Message  string       `json:"message"`
	UserType string       `json:"user_type"`
	User     *userPayload `json:"user"`
}

type checkAuthResponse struct {
	Authenticated bool         `json:"authenticated"`
	UserType      string       `json:"user_type"`
	User          *userPayload `json:"user"`
}

// identityFrom prefers the role carried on the user object over the top level user_type.
func identityFrom(user *userPayload, topLevelType string) *models.Identity {
	if user == nil {
		return nil
	}
	roleRaw := user.UserType
	if strings.TrimSpace(roleRaw) == "" {
		roleRaw = topLevelType
	}
	return &models.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  models.ParseRole(roleRaw),
	}
}

// Login authenticates and returns the session identity. The backend session cookie lands in
// the client's jar.
func (c *AuthClient) Login(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	var resp loginResponse
	if err := c.base.DoJSON(ctx, http.MethodPost, "/api/login", creds, &resp); err != nil {
		return nil, err
	}
	identity := identityFrom(resp.User, resp.UserType)
	if identity == nil {
		identity = &models.Identity{Email: creds.Email, Role: models.ParseRole(resp.UserType)}
	}
	return identity, nil
}

// Register creates a self-service account.
func (c *AuthClient) Register(ctx context.Context, reg models.Registration) error {
	return c.base.DoJSON(ctx, http.MethodPost, "/api/register", reg, nil)
}

// Logout terminates the backend session.
func (c *AuthClient) Logout(ctx context.Context) error {
	return c.base.DoJSON(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// CheckAuth returns the current identity or nil when the backend reports no session.
func (c *AuthClient) CheckAuth(ctx context.Context) (*models.Identity, error) {
	var resp checkAuthResponse
	if err := c.base.DoJSON(ctx, http.MethodGet, "/api/check-auth", nil, &resp); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	if !resp.Authenticated {
		return nil, nil
	}
	return identityFrom(resp.User, resp.UserType), nil
}

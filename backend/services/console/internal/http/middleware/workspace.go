package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/workspace"
)

// SessionCookie names the signed workspace cookie.
const SessionCookie = "console_session"

// WorkspaceOptions configures WorkspaceMiddleware.
type WorkspaceOptions struct {
	Tokens       *workspace.TokenService
	Registry     *workspace.Registry
	SecureCookie bool
	Logger       *zap.Logger
}

// WorkspaceMiddleware resolves the browser's workspace from the console_session cookie,
// creating one (and issuing a fresh cookie) when the cookie is missing, invalid or points at
// a workspace this process does not hold. Cookies past half their lifetime are reissued.
func WorkspaceMiddleware(opts WorkspaceOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				id      string
				refresh bool
			)
			if c, err := r.Cookie(SessionCookie); err == nil {
				verified, expiresAt, err := opts.Tokens.Inspect(c.Value)
				if err != nil {
					opts.Logger.Debug("discarding workspace cookie", zap.Error(err))
				} else {
					id = verified
					refresh = opts.Tokens.NeedsRefresh(expiresAt)
				}
			}

			ws, created, err := opts.Registry.Acquire(r.Context(), id)
			if err != nil {
				opts.Logger.Error("acquire workspace failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "workspace unavailable")
				return
			}
			setWorkspaceID(r.Context(), ws.ID)

			if created || refresh || id == "" {
				token, err := opts.Tokens.Issue(ws.ID)
				if err != nil {
					opts.Logger.Error("issue workspace cookie failed", zap.Error(err))
					writeError(w, http.StatusInternalServerError, "workspace unavailable")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    token,
					Path:     "/",
					MaxAge:   int(opts.Tokens.TTL().Seconds()),
					HttpOnly: true,
					Secure:   opts.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(workspace.WithWorkspace(r.Context(), ws)))
		})
	}
}

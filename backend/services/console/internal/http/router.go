package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"colonnine/backend/services/console/internal/http/handlers"
	"colonnine/backend/services/console/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	PageHandlers   *handlers.PageHandlers
	ActionHandlers *handlers.ActionHandlers
	HealthHandler  http.HandlerFunc
	// Workspace resolves the browser workspace for every console route.
	Workspace func(http.Handler) http.Handler
	// AuthLimit guards login and registration.
	AuthLimit func(http.Handler) http.Handler
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, routed(pattern, h))
	}

	handle("/health", method(http.MethodGet, deps.HealthHandler))
	handle("/metrics", method(http.MethodGet, promhttp.Handler()))

	console := func(handler http.HandlerFunc, extra ...func(http.Handler) http.Handler) http.Handler {
		return middleware.Chain(handler, append(extra, deps.Workspace)...)
	}

	handle("/", method(http.MethodGet, console(deps.PageHandlers.Index)))
	handle("/api/view", method(http.MethodGet, console(deps.PageHandlers.View)))
	handle("/ws", method(http.MethodGet, console(deps.PageHandlers.Socket)))

	handle("/actions/", method(http.MethodPost, console(deps.ActionHandlers.Handle)))
	handle("/actions/login", method(http.MethodPost, console(deps.ActionHandlers.Handle, deps.AuthLimit)))
	handle("/actions/register", method(http.MethodPost, console(deps.ActionHandlers.Handle, deps.AuthLimit)))

	return mux
}

// routed labels requests with pattern. Subtree patterns other than /actions/ only claim their
// exact path so unknown URLs stay unlabelled.
func routed(pattern string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pattern == "/actions/" || r.URL.Path == pattern {
			middleware.SetRoute(r.Context(), pattern)
		}
		handler.ServeHTTP(w, r)
	})
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

package middleware

import (
	"context"
	"net/http"
)

type requestInfoKey struct{}

// requestInfo is filled by inner handlers and read by LoggingMiddleware after they return.
type requestInfo struct {
	route       string
	workspaceID string
}

func withRequestInfo(r *http.Request) (*http.Request, *requestInfo) {
	info := &requestInfo{}
	return r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)), info
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// SetRoute labels the request with a bounded route name for logs and metrics.
func SetRoute(ctx context.Context, route string) {
	if info := infoFrom(ctx); info != nil {
		info.route = route
	}
}

func setWorkspaceID(ctx context.Context, id string) {
	if info := infoFrom(ctx); info != nil {
		info.workspaceID = id
	}
}

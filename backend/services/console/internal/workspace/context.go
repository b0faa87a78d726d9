package workspace

import "context"

type contextKey string

const (
	idKey        contextKey = "workspaceID"
	workspaceKey contextKey = "workspace"
)

// WithID tags ctx with a workspace id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey, id)
}

// IDFromContext retrieves the workspace id.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idKey).(string)
	return id, ok && id != ""
}

// WithWorkspace stores ws (and its id) in ctx.
func WithWorkspace(ctx context.Context, ws *Workspace) context.Context {
	ctx = WithID(ctx, ws.ID)
	return context.WithValue(ctx, workspaceKey, ws)
}

// FromContext retrieves the workspace attached by the middleware.
func FromContext(ctx context.Context) (*Workspace, bool) {
	ws, ok := ctx.Value(workspaceKey).(*Workspace)
	return ws, ok && ws != nil
}

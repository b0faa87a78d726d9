package repository

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/clients"
	"colonnine/backend/services/console/internal/workspace"
)

const recordTimeout = 2 * time.Second

// RequestLogEntry is one audited backend call.
type RequestLogEntry struct {
	WorkspaceID string
	Method      string
	Path        string
	Status      int
	DurationMS  int64
	Error       string
}

// RequestLogRepository stores backend calls made on behalf of workspaces.
type RequestLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestLogRepository ctor.
func NewRequestLogRepository(db *sql.DB, logger *zap.Logger) *RequestLogRepository {
	return &RequestLogRepository{db: db, logger: logger}
}

// EnsureSchema creates the audit table when missing.
func (r *RequestLogRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS console_requests (
			id           BIGSERIAL PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			method       TEXT NOT NULL,
			path         TEXT NOT NULL,
			status       INTEGER NOT NULL,
			duration_ms  BIGINT NOT NULL,
			error        TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Save stores entry.
func (r *RequestLogRepository) Save(ctx context.Context, entry RequestLogEntry) error {
	const query = `
		INSERT INTO console_requests (workspace_id, method, path, status, duration_ms, error)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	`
	_, err := r.db.ExecContext(ctx, query, entry.WorkspaceID, entry.Method, entry.Path, entry.Status, entry.DurationMS, entry.Error)
	return err
}

// Record implements clients.Recorder. Failures are logged and never reach the caller.
func (r *RequestLogRepository) Record(ctx context.Context, call clients.Call) {
	entry := RequestLogEntry{
		Method:     call.Method,
		Path:       call.Path,
		Status:     call.Status,
		DurationMS: call.Duration.Milliseconds(),
	}
	if id, ok := workspace.IDFromContext(ctx); ok {
		entry.WorkspaceID = id
	}
	if call.Err != nil {
		entry.Error = call.Err.Error()
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.Save(saveCtx, entry); err != nil {
		r.logger.Warn("request log insert failed", zap.String("path", call.Path), zap.Error(err))
	}
}

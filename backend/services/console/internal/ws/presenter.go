package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/view"
)

// Presenter pushes every rendered view of one workspace to its open tabs.
type Presenter struct {
	manager     *Manager
	page        *view.Page
	workspaceID string
	logger      *zap.Logger
}

// NewPresenter returns a presenter bound to workspaceID.
func NewPresenter(manager *Manager, page *view.Page, workspaceID string, logger *zap.Logger) *Presenter {
	return &Presenter{manager: manager, page: page, workspaceID: workspaceID, logger: logger}
}

// Present implements syncer.Presenter.
func (p *Presenter) Present(v view.View) {
	if p.manager.Count(p.workspaceID) == 0 {
		return
	}
	msg, err := EncodeFrame(p.page, v)
	if err != nil {
		p.logger.Error("encode view frame failed", zap.String("workspace_id", p.workspaceID), zap.Error(err))
		return
	}
	p.manager.Broadcast(p.workspaceID, msg)
}

// EncodeFrame renders v and marshals it as a view frame.
func EncodeFrame(page *view.Page, v view.View) ([]byte, error) {
	frame, err := page.Frame(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame)
}

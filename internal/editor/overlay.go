package editor

import "kouza/internal/domain/models"

// ActiveItem is the node currently being dragged, exposed to the floating
// drag preview. Presentational only.
type ActiveItem struct {
	Kind models.NodeKind `json:"kind"`
	ID   string          `json:"id"`
	Name string          `json:"name"`
}

// ActiveItem returns the node being dragged, or nil outside a drag session.
func (e *Engine) ActiveItem() *ActiveItem {
	return e.active
}

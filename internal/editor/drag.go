package editor

import "kouza/internal/domain/models"

// Phase is the drag state machine phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
)

// NodeRef identifies a node by kind and id. The kind comes from the drag
// source's registration, never from probing the node's shape.
type NodeRef struct {
	Kind models.NodeKind `json:"kind"`
	ID   string          `json:"id"`
}

// Rect is a rendered node's bounding box in viewport coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DragStartEvent begins a drag session for the referenced node.
type DragStartEvent struct {
	Active NodeRef
}

// DragOverEvent fires when the dragged node hovers a new target. ActiveRect
// is the dragged item's translated bounding box.
type DragOverEvent struct {
	Active     NodeRef
	ActiveRect Rect
	Over       NodeRef
	OverRect   Rect
}

// DragEndEvent ends a drag session. Over is nil when the node was dropped
// outside any valid target.
type DragEndEvent struct {
	Active NodeRef
	Over   *NodeRef
}

// Engine drives the drag-reorder state machine over a tree. Events arrive
// serially from the input layer; malformed or unknown ids are no-ops so a
// single bad event cannot corrupt the session.
type Engine struct {
	tree   *Tree
	phase  Phase
	active *ActiveItem
}

// NewEngine creates a drag engine operating on the given tree.
func NewEngine(tree *Tree) *Engine {
	return &Engine{tree: tree, phase: PhaseIdle}
}

// Phase returns the current state machine phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// DragStart enters the Dragging phase and records the active node for the
// overlay. Unknown nodes leave the engine idle.
func (e *Engine) DragStart(ev DragStartEvent) {
	item, ok := e.lookup(ev.Active)
	if !ok {
		return
	}
	e.active = item
	e.phase = PhaseDragging
}

// DragOver applies cross-container moves live while hovering. Same-parent
// hovers are no-ops; the final order is computed at drop.
func (e *Engine) DragOver(ev DragOverEvent) {
	if e.phase != PhaseDragging {
		return
	}

	switch ev.Active.Kind {
	case models.KindPage:
		switch ev.Over.Kind {
		case models.KindPage:
			e.movePageOverPage(ev)
		case models.KindLecture:
			e.movePageIntoLecture(ev.Active.ID, ev.Over.ID)
		}
	case models.KindLecture:
		switch ev.Over.Kind {
		case models.KindLecture:
			e.moveLectureOverLecture(ev)
		case models.KindSection:
			e.moveLectureIntoSection(ev.Active.ID, ev.Over.ID)
		}
	}
}

// DragEnd commits the drop: same-kind, same-parent drops reorder siblings
// with array-move semantics. The active marker is always cleared and orders
// are always renormalized, so sibling groups touched only by hover moves end
// up dense as well.
func (e *Engine) DragEnd(ev DragEndEvent) {
	e.active = nil
	e.phase = PhaseIdle
	defer e.tree.normalize()

	if ev.Over == nil {
		return
	}

	if ev.Active.Kind != ev.Over.Kind {
		return
	}

	t := e.tree
	switch ev.Active.Kind {
	case models.KindSection:
		oldIdx := t.findSection(ev.Active.ID)
		newIdx := t.findSection(ev.Over.ID)
		if oldIdx < 0 || newIdx < 0 {
			return
		}
		t.sections = arrayMove(t.sections, oldIdx, newIdx)

	case models.KindLecture:
		srcSec, srcLec, ok := t.findLecture(ev.Active.ID)
		if !ok {
			return
		}
		dstSec, dstLec, ok := t.findLecture(ev.Over.ID)
		if !ok || srcSec != dstSec {
			return
		}
		sec := &t.sections[srcSec]
		sec.Lectures = arrayMove(sec.Lectures, srcLec, dstLec)

	case models.KindPage:
		srcSec, srcLec, srcPage, ok := t.findPage(ev.Active.ID)
		if !ok {
			return
		}
		dstSec, dstLec, dstPage, ok := t.findPage(ev.Over.ID)
		if !ok || srcSec != dstSec || srcLec != dstLec {
			return
		}
		lec := &t.sections[srcSec].Lectures[srcLec]
		lec.Pages = arrayMove(lec.Pages, srcPage, dstPage)
	}
}

// Cancel abandons the drag and clears the overlay marker. Cross-parent moves
// already applied during hover are kept (the engine takes no snapshot of the
// pre-drag tree), but orders are renormalized so the moves leave dense
// sibling groups behind.
func (e *Engine) Cancel() {
	e.active = nil
	e.phase = PhaseIdle
	e.tree.normalize()
}

// isBelow reports whether the dragged item's translated top edge has passed
// the hovered target's bottom edge. When it has, the insert position shifts
// one past the hovered index.
func isBelow(active, over Rect) bool {
	return active.Top > over.Top+over.Height
}

// movePageOverPage splices the dragged page into the hovered page's lecture.
// Hovering pages of the same lecture changes nothing until drop.
func (e *Engine) movePageOverPage(ev DragOverEvent) {
	t := e.tree
	srcSec, srcLec, srcPage, ok := t.findPage(ev.Active.ID)
	if !ok {
		return
	}
	dstSec, dstLec, dstPage, ok := t.findPage(ev.Over.ID)
	if !ok {
		return
	}
	if srcSec == dstSec && srcLec == dstLec {
		return
	}

	src := &t.sections[srcSec].Lectures[srcLec]
	moved := src.Pages[srcPage]
	src.Pages = append(src.Pages[:srcPage], src.Pages[srcPage+1:]...)

	dst := &t.sections[dstSec].Lectures[dstLec]
	idx := dstPage
	if isBelow(ev.ActiveRect, ev.OverRect) {
		idx++
	}
	if idx > len(dst.Pages) {
		idx = len(dst.Pages)
	}

	moved.LectureID = dst.ID
	dst.Pages = append(dst.Pages[:idx:idx], append([]models.Page{moved}, dst.Pages[idx:]...)...)
}

// movePageIntoLecture appends the dragged page as the last child of the
// hovered lecture.
func (e *Engine) movePageIntoLecture(pageID, lectureID string) {
	t := e.tree
	srcSec, srcLec, srcPage, ok := t.findPage(pageID)
	if !ok {
		return
	}
	dstSec, dstLec, ok := t.findLecture(lectureID)
	if !ok {
		return
	}
	if srcSec == dstSec && srcLec == dstLec {
		return
	}

	src := &t.sections[srcSec].Lectures[srcLec]
	moved := src.Pages[srcPage]
	src.Pages = append(src.Pages[:srcPage], src.Pages[srcPage+1:]...)

	dst := &t.sections[dstSec].Lectures[dstLec]
	moved.LectureID = dst.ID
	dst.Pages = append(dst.Pages, moved)
}

// moveLectureOverLecture splices the dragged lecture (with its pages) into
// the hovered lecture's section.
func (e *Engine) moveLectureOverLecture(ev DragOverEvent) {
	t := e.tree
	srcSec, srcLec, ok := t.findLecture(ev.Active.ID)
	if !ok {
		return
	}
	dstSec, dstLec, ok := t.findLecture(ev.Over.ID)
	if !ok {
		return
	}
	if srcSec == dstSec {
		return
	}

	src := &t.sections[srcSec]
	moved := src.Lectures[srcLec]
	src.Lectures = append(src.Lectures[:srcLec], src.Lectures[srcLec+1:]...)

	dst := &t.sections[dstSec]
	idx := dstLec
	if isBelow(ev.ActiveRect, ev.OverRect) {
		idx++
	}
	if idx > len(dst.Lectures) {
		idx = len(dst.Lectures)
	}

	moved.SectionID = dst.ID
	dst.Lectures = append(dst.Lectures[:idx:idx], append([]models.Lecture{moved}, dst.Lectures[idx:]...)...)
}

// moveLectureIntoSection appends the dragged lecture as the last child of the
// hovered section.
func (e *Engine) moveLectureIntoSection(lectureID, sectionID string) {
	t := e.tree
	srcSec, srcLec, ok := t.findLecture(lectureID)
	if !ok {
		return
	}
	dstSec := t.findSection(sectionID)
	if dstSec < 0 || dstSec == srcSec {
		return
	}

	src := &t.sections[srcSec]
	moved := src.Lectures[srcLec]
	src.Lectures = append(src.Lectures[:srcLec], src.Lectures[srcLec+1:]...)

	dst := &t.sections[dstSec]
	moved.SectionID = dst.ID
	dst.Lectures = append(dst.Lectures, moved)
}

// lookup resolves a node reference to its overlay representation.
func (e *Engine) lookup(ref NodeRef) (*ActiveItem, bool) {
	t := e.tree
	switch ref.Kind {
	case models.KindSection:
		if si := t.findSection(ref.ID); si >= 0 {
			return &ActiveItem{Kind: ref.Kind, ID: ref.ID, Name: t.sections[si].Name}, true
		}
	case models.KindLecture:
		if si, li, ok := t.findLecture(ref.ID); ok {
			return &ActiveItem{Kind: ref.Kind, ID: ref.ID, Name: t.sections[si].Lectures[li].Name}, true
		}
	case models.KindPage:
		if si, li, pi, ok := t.findPage(ref.ID); ok {
			return &ActiveItem{Kind: ref.Kind, ID: ref.ID, Name: t.sections[si].Lectures[li].Pages[pi].Name}, true
		}
	}
	return nil, false
}

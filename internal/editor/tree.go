// Package editor implements the curriculum tree editing session: the working
// copy of a course's Section → Lecture → Page forest, the structural mutation
// API, and the drag-reorder engine. The session owns its tree exclusively and
// runs on a single goroutine; persistence happens separately, by submitting a
// snapshot to the curriculum service.
package editor

import "kouza/internal/domain/models"

// Tree is an editing session's working copy of a course curriculum.
type Tree struct {
	sections []models.Section
}

// NewTree creates a tree from a loaded curriculum. The slice is owned by the
// tree from this point on.
func NewTree(sections []models.Section) *Tree {
	if sections == nil {
		sections = []models.Section{}
	}
	return &Tree{sections: sections}
}

// Sections returns the current state of the tree.
func (t *Tree) Sections() []models.Section {
	return t.sections
}

// Snapshot returns a deep copy of the tree suitable for submission while the
// session keeps editing.
func (t *Tree) Snapshot() []models.Section {
	out := make([]models.Section, len(t.sections))
	copy(out, t.sections)
	for si := range out {
		lectures := make([]models.Lecture, len(out[si].Lectures))
		copy(lectures, out[si].Lectures)
		for li := range lectures {
			pages := make([]models.Page, len(lectures[li].Pages))
			copy(pages, lectures[li].Pages)
			lectures[li].Pages = pages
		}
		out[si].Lectures = lectures
	}
	return out
}

// findSection returns the index of the section with the given id, or -1.
func (t *Tree) findSection(id string) int {
	for i := range t.sections {
		if t.sections[i].ID == id {
			return i
		}
	}
	return -1
}

// findLecture locates a lecture by id across all sections.
func (t *Tree) findLecture(id string) (secIdx, lecIdx int, ok bool) {
	for si := range t.sections {
		for li := range t.sections[si].Lectures {
			if t.sections[si].Lectures[li].ID == id {
				return si, li, true
			}
		}
	}
	return 0, 0, false
}

// findPage locates a page by id across all lectures.
func (t *Tree) findPage(id string) (secIdx, lecIdx, pageIdx int, ok bool) {
	for si := range t.sections {
		for li := range t.sections[si].Lectures {
			for pi := range t.sections[si].Lectures[li].Pages {
				if t.sections[si].Lectures[li].Pages[pi].ID == id {
					return si, li, pi, true
				}
			}
		}
	}
	return 0, 0, 0, false
}

// normalize re-derives dense zero-based order values for every sibling group
// and points parent references at the enclosing node.
func (t *Tree) normalize() {
	for si := range t.sections {
		sec := &t.sections[si]
		sec.Order = si
		for li := range sec.Lectures {
			lec := &sec.Lectures[li]
			lec.Order = li
			lec.SectionID = sec.ID
			for pi := range lec.Pages {
				page := &lec.Pages[pi]
				page.Order = pi
				page.LectureID = lec.ID
			}
		}
	}
}

// arrayMove removes the element at from and re-inserts it at to, matching
// the drag library's array-move semantics. Out-of-range indices leave the
// slice unchanged.
func arrayMove[T any](items []T, from, to int) []T {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) || from == to {
		return items
	}
	item := items[from]
	rest := append(items[:from:from], items[from+1:]...)
	out := make([]T, 0, len(items))
	out = append(out, rest[:to]...)
	out = append(out, item)
	out = append(out, rest[to:]...)
	return out
}

package editor

import (
	"fmt"
	"strconv"
	"strings"

	"kouza/internal/domain"
	"kouza/internal/domain/models"
)

// Default display names for freshly created nodes.
const (
	defaultSectionName = "新規セクション"
	defaultLectureName = "新規レクチャー"
	defaultPageName    = "新規ページ"
)

// AddSection appends a new section with a placeholder id and returns it.
func (t *Tree) AddSection() models.Section {
	section := models.Section{
		ID:       models.NewPlaceholderID(models.KindSection),
		Name:     defaultSectionName,
		Order:    len(t.sections),
		IsOpen:   true,
		Lectures: []models.Lecture{},
	}
	t.sections = append(t.sections, section)
	return section
}

// AddLecture appends a new lecture to the named section. Returns false and
// leaves the tree unchanged when the section does not exist.
func (t *Tree) AddLecture(sectionID string) (models.Lecture, bool) {
	si := t.findSection(sectionID)
	if si < 0 {
		return models.Lecture{}, false
	}

	sec := &t.sections[si]
	lecture := models.Lecture{
		ID:        models.NewPlaceholderID(models.KindLecture),
		Name:      defaultLectureName,
		Slug:      strconv.Itoa(len(sec.Lectures)),
		Order:     len(sec.Lectures),
		IsOpen:    true,
		SectionID: sec.ID,
		Pages:     []models.Page{},
	}
	sec.Lectures = append(sec.Lectures, lecture)
	return lecture, true
}

// AddPage appends a new page to the lecture found by id across all sections.
// Returns false and leaves the tree unchanged when the lecture does not exist.
func (t *Tree) AddPage(lectureID string) (models.Page, bool) {
	si, li, ok := t.findLecture(lectureID)
	if !ok {
		return models.Page{}, false
	}

	lec := &t.sections[si].Lectures[li]
	page := models.Page{
		ID:        models.NewPlaceholderID(models.KindPage),
		Name:      defaultPageName,
		Slug:      strconv.Itoa(len(lec.Pages)),
		Order:     len(lec.Pages),
		IsOpen:    true,
		LectureID: lec.ID,
	}
	lec.Pages = append(lec.Pages, page)
	return page, true
}

// DeleteSection removes the section and everything under it. Unknown ids are
// a no-op. Sibling orders are renormalized.
func (t *Tree) DeleteSection(id string) {
	si := t.findSection(id)
	if si < 0 {
		return
	}
	t.sections = append(t.sections[:si], t.sections[si+1:]...)
	t.normalize()
}

// DeleteLecture removes the lecture and its pages from wherever it resides.
func (t *Tree) DeleteLecture(id string) {
	si, li, ok := t.findLecture(id)
	if !ok {
		return
	}
	lectures := t.sections[si].Lectures
	t.sections[si].Lectures = append(lectures[:li], lectures[li+1:]...)
	t.normalize()
}

// DeletePage removes the page from wherever it resides.
func (t *Tree) DeletePage(id string) {
	si, li, pi, ok := t.findPage(id)
	if !ok {
		return
	}
	pages := t.sections[si].Lectures[li].Pages
	t.sections[si].Lectures[li].Pages = append(pages[:pi], pages[pi+1:]...)
	t.normalize()
}

// RenameSection updates a section's display name. Sections carry no slug.
func (t *Tree) RenameSection(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("section name is required: %w", domain.ErrValidation)
	}

	si := t.findSection(id)
	if si < 0 {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}

	t.sections[si].Name = name
	return nil
}

// RenameLecture updates a lecture's name and, when slug is non-nil, its slug.
// A slug colliding with a sibling lecture rejects the whole edit.
func (t *Tree) RenameLecture(id, name string, slug *string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("lecture name is required: %w", domain.ErrValidation)
	}

	si, li, ok := t.findLecture(id)
	if !ok {
		return fmt.Errorf("lecture %s: %w", id, domain.ErrNotFound)
	}

	if slug != nil {
		newSlug := strings.TrimSpace(*slug)
		if newSlug == "" {
			return fmt.Errorf("lecture slug is required: %w", domain.ErrValidation)
		}
		for i, sibling := range t.sections[si].Lectures {
			if i != li && sibling.Slug == newSlug {
				return fmt.Errorf("lecture slug %q already used in this section: %w", newSlug, domain.ErrValidation)
			}
		}
		t.sections[si].Lectures[li].Slug = newSlug
	}

	t.sections[si].Lectures[li].Name = name
	return nil
}

// RenamePage updates a page's name and, when slug is non-nil, its slug.
// A slug colliding with a sibling page rejects the whole edit.
func (t *Tree) RenamePage(id, name string, slug *string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("page name is required: %w", domain.ErrValidation)
	}

	si, li, pi, ok := t.findPage(id)
	if !ok {
		return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}

	if slug != nil {
		newSlug := strings.TrimSpace(*slug)
		if newSlug == "" {
			return fmt.Errorf("page slug is required: %w", domain.ErrValidation)
		}
		for i, sibling := range t.sections[si].Lectures[li].Pages {
			if i != pi && sibling.Slug == newSlug {
				return fmt.Errorf("page slug %q already used in this lecture: %w", newSlug, domain.ErrValidation)
			}
		}
		t.sections[si].Lectures[li].Pages[pi].Slug = newSlug
	}

	t.sections[si].Lectures[li].Pages[pi].Name = name
	return nil
}

// ToggleOpen flips the publication flag of the node with the given id. When
// recursive is true the flag cascades to every descendant. Unknown ids are a
// no-op.
func (t *Tree) ToggleOpen(id string, isOpen, recursive bool) {
	if si := t.findSection(id); si >= 0 {
		sec := &t.sections[si]
		sec.IsOpen = isOpen
		if recursive {
			for li := range sec.Lectures {
				sec.Lectures[li].IsOpen = isOpen
				for pi := range sec.Lectures[li].Pages {
					sec.Lectures[li].Pages[pi].IsOpen = isOpen
				}
			}
		}
		return
	}

	if si, li, ok := t.findLecture(id); ok {
		lec := &t.sections[si].Lectures[li]
		lec.IsOpen = isOpen
		if recursive {
			for pi := range lec.Pages {
				lec.Pages[pi].IsOpen = isOpen
			}
		}
		return
	}

	if si, li, pi, ok := t.findPage(id); ok {
		t.sections[si].Lectures[li].Pages[pi].IsOpen = isOpen
	}
}

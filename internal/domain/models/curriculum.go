package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NodeKind identifies the level of a curriculum node. The kind is fixed at
// construction time and is never inferred from which fields happen to be set.
type NodeKind string

const (
	KindSection NodeKind = "section"
	KindLecture NodeKind = "lecture"
	KindPage    NodeKind = "page"
)

// placeholderPrefix marks client-generated ids for nodes that have not been
// persisted yet. The reconciler replaces them with server-allocated ids.
const placeholderPrefix = "draft-"

// NewPlaceholderID returns a transient id for a node created in the editor.
func NewPlaceholderID(kind NodeKind) string {
	return placeholderPrefix + string(kind) + "-" + uuid.NewString()
}

// IsPlaceholderID reports whether id is a transient editor-generated id.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// Course is the root aggregate a curriculum belongs to. The curriculum editor
// only ever references it by id; editing course metadata is plain CRUD.
type Course struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Name string `json:"name"`
}

// Section is the top level of the curriculum tree.
type Section struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Order    int       `json:"order"`
	IsOpen   bool      `json:"isOpen"`
	Lectures []Lecture `json:"lectures"`
}

// Lecture sits under a Section and holds ordered Pages. Slug must be unique
// among the lectures of the same section (used for URL addressing).
type Lecture struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Order     int    `json:"order"`
	IsOpen    bool   `json:"isOpen"`
	SectionID string `json:"sectionId"`
	Pages     []Page `json:"pages"`
}

// Page is a leaf of the curriculum tree. Slug must be unique among the pages
// of the same lecture.
type Page struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Order     int    `json:"order"`
	IsOpen    bool   `json:"isOpen"`
	LectureID string `json:"lectureId"`
}

// SaveCurriculumRequest is the tree snapshot submitted by the editor.
type SaveCurriculumRequest struct {
	Sections []Section `json:"sections"`
}

// CurriculumResponse wraps the persisted tree returned to the editor so it
// can re-synchronize placeholder ids with the allocated ones.
type CurriculumResponse struct {
	CourseID string    `json:"course_id"`
	Sections []Section `json:"sections"`
}

package repositories

import (
	"context"

	"kouza/internal/domain/models"
)

// CourseRepository persists the root aggregate the curriculum hangs off of.
type CourseRepository interface {
	// Create inserts a course and fills in its allocated id.
	Create(ctx context.Context, course *models.Course) error

	// GetByID retrieves a course owned by the given user.
	GetByID(ctx context.Context, id, ownerID string) (*models.Course, error)

	// List retrieves all courses owned by the given user.
	List(ctx context.Context, ownerID string) ([]models.Course, error)
}

// SectionRepository persists curriculum sections.
type SectionRepository interface {
	// ListByCourse returns the course's sections ordered by "order", without children.
	ListByCourse(ctx context.Context, courseID string) ([]models.Section, error)

	// Upsert writes a section under its existing id, creating the row if absent.
	Upsert(ctx context.Context, courseID string, section *models.Section) error

	// Create inserts a section with a freshly allocated id and fills it in.
	Create(ctx context.Context, courseID string, section *models.Section) error

	// DeleteMissing deletes every section of the course whose id is not in keep.
	DeleteMissing(ctx context.Context, courseID string, keep []string) error
}

// LectureRepository persists curriculum lectures.
type LectureRepository interface {
	// ListByCourse returns all lectures of the course ordered by "order".
	ListByCourse(ctx context.Context, courseID string) ([]models.Lecture, error)

	// Upsert writes a lecture under its existing id, creating the row if absent.
	Upsert(ctx context.Context, lecture *models.Lecture) error

	// Create inserts a lecture with a freshly allocated id and fills it in.
	Create(ctx context.Context, lecture *models.Lecture) error

	// DeleteMissing deletes every lecture of the course whose id is not in keep.
	DeleteMissing(ctx context.Context, courseID string, keep []string) error
}

// PageRepository persists curriculum pages.
type PageRepository interface {
	// ListByCourse returns all pages of the course ordered by "order".
	ListByCourse(ctx context.Context, courseID string) ([]models.Page, error)

	// Upsert writes a page under its existing id, creating the row if absent.
	Upsert(ctx context.Context, page *models.Page) error

	// Create inserts a page with a freshly allocated id and fills it in.
	Create(ctx context.Context, page *models.Page) error

	// DeleteMissing deletes every page of the course whose id is not in keep.
	DeleteMissing(ctx context.Context, courseID string, keep []string) error
}

package services

import (
	"context"

	"kouza/internal/domain/models"
)

// CurriculumService owns the persisted mirror of a course's curriculum tree.
type CurriculumService interface {
	// GetTree reads the persisted curriculum and assembles the nested tree.
	GetTree(ctx context.Context, userID, courseID string) ([]models.Section, error)

	// SaveTree makes the persisted curriculum match the submitted snapshot
	// exactly: nodes absent from the snapshot are deleted, nodes with
	// placeholder ids are created, everything else is updated in place.
	// The whole walk runs in one transaction. The returned tree carries the
	// durable ids allocated for placeholder nodes.
	SaveTree(ctx context.Context, userID, courseID string, sections []models.Section) ([]models.Section, error)
}

// CourseService manages the course aggregate itself.
type CourseService interface {
	CreateCourse(ctx context.Context, ownerID string, req *models.CreateCourseRequest) (*models.Course, error)
	GetCourse(ctx context.Context, userID, courseID string) (*models.Course, error)
	ListCourses(ctx context.Context, userID string) ([]models.Course, error)
}

// CourseAuthorizer decides whether a user may edit a course. The curriculum
// service calls it before touching persisted state; how the caller was
// authenticated is not this package's concern.
type CourseAuthorizer interface {
	CanEditCourse(ctx context.Context, userID, courseID string) error
}

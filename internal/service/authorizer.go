package service

import (
	"context"
	"errors"
	"fmt"

	"kouza/internal/domain"
	"kouza/internal/domain/repositories"
	"kouza/internal/domain/services"
)

// OwnerBasedAuthorizer implements CourseAuthorizer using ownership checks:
// a user may edit a course if they own it. Richer models (roles, shared
// editors) can replace this behind the same interface.
type OwnerBasedAuthorizer struct {
	courseRepo repositories.CourseRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(courseRepo repositories.CourseRepository) services.CourseAuthorizer {
	return &OwnerBasedAuthorizer{courseRepo: courseRepo}
}

// CanEditCourse checks if the user owns the course
func (a *OwnerBasedAuthorizer) CanEditCourse(ctx context.Context, userID, courseID string) error {
	// CourseRepository.GetByID already filters by ownerID (ownership check).
	// If it returns not found, the user doesn't own the course.
	_, err := a.courseRepo.GetByID(ctx, courseID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("access denied to course %s: %w", courseID, domain.ErrForbidden)
		}
		return fmt.Errorf("check course access: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"kouza/internal/config"
	"kouza/internal/domain"
	"kouza/internal/domain/models"
	"kouza/internal/domain/repositories"
	"kouza/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type courseService struct {
	courseRepo repositories.CourseRepository
	logger     *slog.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo repositories.CourseRepository, logger *slog.Logger) services.CourseService {
	return &courseService{
		courseRepo: courseRepo,
		logger:     logger,
	}
}

// CreateCourse creates a new course owned by the given user
func (s *courseService) CreateCourse(ctx context.Context, ownerID string, req *models.CreateCourseRequest) (*models.Course, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxNameLength),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	course := &models.Course{
		OwnerID: ownerID,
		Name:    req.Name,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info("course created", "id", course.ID, "name", course.Name, "owner_id", ownerID)
	return course, nil
}

// GetCourse retrieves a course owned by the given user
func (s *courseService) GetCourse(ctx context.Context, userID, courseID string) (*models.Course, error) {
	return s.courseRepo.GetByID(ctx, courseID, userID)
}

// ListCourses retrieves all courses owned by the given user
func (s *courseService) ListCourses(ctx context.Context, userID string) ([]models.Course, error) {
	return s.courseRepo.List(ctx, userID)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"kouza/internal/domain"
	"kouza/internal/domain/models"
	"kouza/internal/domain/repositories"
)

// PostgresCourseRepository implements the CourseRepository interface
type PostgresCourseRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(config *RepositoryConfig) repositories.CourseRepository {
	return &PostgresCourseRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new course
func (r *PostgresCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING created_at, updated_at
	`, r.tables.Courses)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		course.ID,
		course.OwnerID,
		course.Name,
	).Scan(&course.CreatedAt, &course.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("course '%s': %w", course.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

// GetByID retrieves a course owned by the given user
func (r *PostgresCourseRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Course, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, created_at, updated_at
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.tables.Courses)

	var course models.Course
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, ownerID).Scan(
		&course.ID,
		&course.OwnerID,
		&course.Name,
		&course.CreatedAt,
		&course.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("course %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get course: %w", err)
	}

	return &course, nil
}

// List retrieves all courses owned by the given user, newest first
func (r *PostgresCourseRepository) List(ctx context.Context, ownerID string) ([]models.Course, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, created_at, updated_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`, r.tables.Courses)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var course models.Course
		err := rows.Scan(
			&course.ID,
			&course.OwnerID,
			&course.Name,
			&course.CreatedAt,
			&course.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, nil
}

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

// PostgresLectureRepository implements the LectureRepository interface
type PostgresLectureRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewLectureRepository creates a new lecture repository
func NewLectureRepository(config *RepositoryConfig) repositories.LectureRepository {
	return &PostgresLectureRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListByCourse returns all lectures of the course ordered by "order"
func (r *PostgresLectureRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Lecture, error) {
	query := fmt.Sprintf(`
		SELECT l.id, l.name, l.slug, l."order", l.is_open, l.section_id
		FROM %s l
		JOIN %s s ON l.section_id = s.id
		WHERE s.course_id = $1
		ORDER BY l."order" ASC
	`, r.tables.Lectures, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	defer rows.Close()

	var lectures []models.Lecture
	for rows.Next() {
		var lecture models.Lecture
		err := rows.Scan(
			&lecture.ID,
			&lecture.Name,
			&lecture.Slug,
			&lecture.Order,
			&lecture.IsOpen,
			&lecture.SectionID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan lecture: %w", err)
		}
		lectures = append(lectures, lecture)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lectures: %w", err)
	}

	return lectures, nil
}

// Upsert writes a lecture under its existing id, creating the row if absent
func (r *PostgresLectureRepository) Upsert(ctx context.Context, lecture *models.Lecture) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, section_id, name, slug, "order", is_open)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET section_id = EXCLUDED.section_id,
		    name = EXCLUDED.name,
		    slug = EXCLUDED.slug,
		    "order" = EXCLUDED."order",
		    is_open = EXCLUDED.is_open
	`, r.tables.Lectures)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		lecture.ID,
		lecture.SectionID,
		lecture.Name,
		lecture.Slug,
		lecture.Order,
		lecture.IsOpen,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("lecture slug '%s': %w", lecture.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("upsert lecture: %w", err)
	}

	return nil
}

// Create inserts a lecture with a freshly allocated id and fills it in
func (r *PostgresLectureRepository) Create(ctx context.Context, lecture *models.Lecture) error {
	lecture.ID = uuid.NewString()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, section_id, name, slug, "order", is_open)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Lectures)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		lecture.ID,
		lecture.SectionID,
		lecture.Name,
		lecture.Slug,
		lecture.Order,
		lecture.IsOpen,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("lecture slug '%s': %w", lecture.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("create lecture: %w", err)
	}

	return nil
}

// DeleteMissing deletes every lecture of the course whose id is not in keep.
// Runs after the course's pages are deleted and before its sections are.
func (r *PostgresLectureRepository) DeleteMissing(ctx context.Context, courseID string, keep []string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE section_id IN (SELECT id FROM %s WHERE course_id = $1)
		  AND NOT (id = ANY($2))
	`, r.tables.Lectures, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, courseID, keep); err != nil {
		return fmt.Errorf("delete missing lectures: %w", err)
	}

	return nil
}

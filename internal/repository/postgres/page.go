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

// PostgresPageRepository implements the PageRepository interface
type PostgresPageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPageRepository creates a new page repository
func NewPageRepository(config *RepositoryConfig) repositories.PageRepository {
	return &PostgresPageRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListByCourse returns all pages of the course ordered by "order"
func (r *PostgresPageRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Page, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.name, p.slug, p."order", p.is_open, p.lecture_id
		FROM %s p
		JOIN %s l ON p.lecture_id = l.id
		JOIN %s s ON l.section_id = s.id
		WHERE s.course_id = $1
		ORDER BY p."order" ASC
	`, r.tables.Pages, r.tables.Lectures, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var page models.Page
		err := rows.Scan(
			&page.ID,
			&page.Name,
			&page.Slug,
			&page.Order,
			&page.IsOpen,
			&page.LectureID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}

	return pages, nil
}

// Upsert writes a page under its existing id, creating the row if absent
func (r *PostgresPageRepository) Upsert(ctx context.Context, page *models.Page) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, lecture_id, name, slug, "order", is_open)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET lecture_id = EXCLUDED.lecture_id,
		    name = EXCLUDED.name,
		    slug = EXCLUDED.slug,
		    "order" = EXCLUDED."order",
		    is_open = EXCLUDED.is_open
	`, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		page.ID,
		page.LectureID,
		page.Name,
		page.Slug,
		page.Order,
		page.IsOpen,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("page slug '%s': %w", page.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("upsert page: %w", err)
	}

	return nil
}

// Create inserts a page with a freshly allocated id and fills it in
func (r *PostgresPageRepository) Create(ctx context.Context, page *models.Page) error {
	page.ID = uuid.NewString()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, lecture_id, name, slug, "order", is_open)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		page.ID,
		page.LectureID,
		page.Name,
		page.Slug,
		page.Order,
		page.IsOpen,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("page slug '%s': %w", page.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("create page: %w", err)
	}

	return nil
}

// DeleteMissing deletes every page of the course whose id is not in keep.
// Pages go first so lecture deletes cannot hit foreign-key violations.
func (r *PostgresPageRepository) DeleteMissing(ctx context.Context, courseID string, keep []string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE lecture_id IN (
			SELECT l.id FROM %s l
			JOIN %s s ON l.section_id = s.id
			WHERE s.course_id = $1
		)
		  AND NOT (id = ANY($2))
	`, r.tables.Pages, r.tables.Lectures, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, courseID, keep); err != nil {
		return fmt.Errorf("delete missing pages: %w", err)
	}

	return nil
}

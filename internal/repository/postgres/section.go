package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"kouza/internal/domain/models"
	"kouza/internal/domain/repositories"
)

// PostgresSectionRepository implements the SectionRepository interface
type PostgresSectionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(config *RepositoryConfig) repositories.SectionRepository {
	return &PostgresSectionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListByCourse returns the course's sections ordered by "order", without children
func (r *PostgresSectionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	query := fmt.Sprintf(`
		SELECT id, name, "order", is_open
		FROM %s
		WHERE course_id = $1
		ORDER BY "order" ASC
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var section models.Section
		err := rows.Scan(
			&section.ID,
			&section.Name,
			&section.Order,
			&section.IsOpen,
		)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	return sections, nil
}

// Upsert writes a section under its existing id, creating the row if absent
func (r *PostgresSectionRepository) Upsert(ctx context.Context, courseID string, section *models.Section) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, course_id, name, "order", is_open)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET course_id = EXCLUDED.course_id,
		    name = EXCLUDED.name,
		    "order" = EXCLUDED."order",
		    is_open = EXCLUDED.is_open
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		section.ID,
		courseID,
		section.Name,
		section.Order,
		section.IsOpen,
	)
	if err != nil {
		return fmt.Errorf("upsert section: %w", err)
	}

	return nil
}

// Create inserts a section with a freshly allocated id and fills it in
func (r *PostgresSectionRepository) Create(ctx context.Context, courseID string, section *models.Section) error {
	section.ID = uuid.NewString()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, course_id, name, "order", is_open)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		section.ID,
		courseID,
		section.Name,
		section.Order,
		section.IsOpen,
	)
	if err != nil {
		return fmt.Errorf("create section: %w", err)
	}

	return nil
}

// DeleteMissing deletes every section of the course whose id is not in keep.
// Lectures and pages must already be gone by the time this runs.
func (r *PostgresSectionRepository) DeleteMissing(ctx context.Context, courseID string, keep []string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE course_id = $1 AND NOT (id = ANY($2))
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, courseID, keep); err != nil {
		return fmt.Errorf("delete missing sections: %w", err)
	}

	return nil
}

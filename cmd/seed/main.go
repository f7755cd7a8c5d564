package main

import (
	"context"
	_ "embed"
	"flag"
	"log"
	"log/slog"
	"os"

	"kouza/internal/config"
	"kouza/internal/domain/models"
	"kouza/internal/repository/postgres"
	"kouza/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed curriculum.yaml
var curriculumFixture []byte

// seedCurriculum is the YAML shape of the demo fixture. Nodes carry no ids;
// the reconciliation service allocates them.
type seedCurriculum struct {
	CourseName string `yaml:"course_name"`
	Sections   []struct {
		Name     string `yaml:"name"`
		Lectures []struct {
			Name  string `yaml:"name"`
			Slug  string `yaml:"slug"`
			Pages []struct {
				Name string `yaml:"name"`
				Slug string `yaml:"slug"`
			} `yaml:"pages"`
		} `yaml:"lectures"`
	} `yaml:"sections"`
}

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed the demo course")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	var fixture seedCurriculum
	if err := yaml.Unmarshal(curriculumFixture, &fixture); err != nil {
		log.Fatalf("Failed to parse curriculum fixture: %v", err)
	}

	if err := ensureSeedCourse(ctx, pool, tables, cfg.SeedCourseID, cfg.SeedUserID, fixture.CourseName); err != nil {
		log.Fatalf("Failed to ensure seed course: %v", err)
	}

	// Wire the same service stack the server uses so the seed goes through
	// the full reconciliation path.
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	courseRepo := postgres.NewCourseRepository(repoConfig)
	sectionRepo := postgres.NewSectionRepository(repoConfig)
	lectureRepo := postgres.NewLectureRepository(repoConfig)
	pageRepo := postgres.NewPageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)
	authorizer := service.NewOwnerBasedAuthorizer(courseRepo)
	curriculumService := service.NewCurriculumService(
		sectionRepo, lectureRepo, pageRepo, txManager, authorizer, logger,
	)

	sections := buildTree(&fixture)
	saved, err := curriculumService.SaveTree(ctx, cfg.SeedUserID, cfg.SeedCourseID, sections)
	if err != nil {
		log.Fatalf("Failed to seed curriculum: %v", err)
	}

	log.Printf("Seeded course %q with %d sections", fixture.CourseName, len(saved))
}

// buildTree converts the fixture into a tree snapshot with placeholder ids,
// exactly as the editor would submit a freshly authored curriculum.
func buildTree(fixture *seedCurriculum) []models.Section {
	sections := make([]models.Section, 0, len(fixture.Sections))
	for si, s := range fixture.Sections {
		section := models.Section{
			ID:       models.NewPlaceholderID(models.KindSection),
			Name:     s.Name,
			Order:    si,
			IsOpen:   true,
			Lectures: []models.Lecture{},
		}
		for li, l := range s.Lectures {
			lecture := models.Lecture{
				ID:        models.NewPlaceholderID(models.KindLecture),
				Name:      l.Name,
				Slug:      l.Slug,
				Order:     li,
				IsOpen:    true,
				SectionID: section.ID,
				Pages:     []models.Page{},
			}
			for pi, p := range l.Pages {
				lecture.Pages = append(lecture.Pages, models.Page{
					ID:        models.NewPlaceholderID(models.KindPage),
					Name:      p.Name,
					Slug:      p.Slug,
					Order:     pi,
					IsOpen:    true,
					LectureID: lecture.ID,
				})
			}
			section.Lectures = append(section.Lectures, lecture)
		}
		sections = append(sections, section)
	}
	return sections
}

// ensureSeedCourse creates the demo course if it doesn't exist
func ensureSeedCourse(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, courseID, userID, name string) error {
	query := `
		INSERT INTO ` + tables.Courses + ` (id, owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id) DO NOTHING
	`
	_, err := pool.Exec(ctx, query, courseID, userID, name)
	return err
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createCourses := `
		CREATE TABLE IF NOT EXISTS ` + tables.Courses + ` (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createCourses); err != nil {
		return err
	}

	createSections := `
		CREATE TABLE IF NOT EXISTS ` + tables.Sections + ` (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL REFERENCES ` + tables.Courses + `(id),
			name TEXT NOT NULL,
			"order" INTEGER NOT NULL DEFAULT 0,
			is_open BOOLEAN NOT NULL DEFAULT TRUE
		)
	`
	if _, err := pool.Exec(ctx, createSections); err != nil {
		return err
	}

	// Slug uniqueness is checked at commit, not per row: the save walk updates
	// siblings one at a time, so swapping the slugs of two existing siblings
	// must not trip the constraint mid-transaction.
	createLectures := `
		CREATE TABLE IF NOT EXISTS ` + tables.Lectures + ` (
			id TEXT PRIMARY KEY,
			section_id TEXT NOT NULL REFERENCES ` + tables.Sections + `(id),
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			"order" INTEGER NOT NULL DEFAULT 0,
			is_open BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE (section_id, slug) DEFERRABLE INITIALLY DEFERRED
		)
	`
	if _, err := pool.Exec(ctx, createLectures); err != nil {
		return err
	}

	createPages := `
		CREATE TABLE IF NOT EXISTS ` + tables.Pages + ` (
			id TEXT PRIMARY KEY,
			lecture_id TEXT NOT NULL REFERENCES ` + tables.Lectures + `(id),
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			"order" INTEGER NOT NULL DEFAULT 0,
			is_open BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE (lecture_id, slug) DEFERRABLE INITIALLY DEFERRED
		)
	`
	if _, err := pool.Exec(ctx, createPages); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sections_course ON ` + tables.Sections + `(course_id, "order")`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `lectures_section ON ` + tables.Lectures + `(section_id, "order")`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `pages_lecture ON ` + tables.Pages + `(lecture_id, "order")`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops the curriculum tables in leaf-to-root order
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Pages, tables.Lectures, tables.Sections, tables.Courses} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"kouza/internal/auth"
	"kouza/internal/config"
	"kouza/internal/handler"
	"kouza/internal/middleware"
	"kouza/internal/repository/postgres"
	"kouza/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	courseRepo := postgres.NewCourseRepository(repoConfig)
	sectionRepo := postgres.NewSectionRepository(repoConfig)
	lectureRepo := postgres.NewLectureRepository(repoConfig)
	pageRepo := postgres.NewPageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Create services
	authorizer := service.NewOwnerBasedAuthorizer(courseRepo)
	courseService := service.NewCourseService(courseRepo, logger)
	curriculumService := service.NewCurriculumService(
		sectionRepo,
		lectureRepo,
		pageRepo,
		txManager,
		authorizer,
		logger,
	)

	// Create handlers
	courseHandler := handler.NewCourseHandler(courseService, logger)
	curriculumHandler := handler.NewCurriculumHandler(curriculumService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", courseHandler.HealthCheck)

	// Course routes
	mux.HandleFunc("GET /api/courses", courseHandler.ListCourses)
	mux.HandleFunc("POST /api/courses", courseHandler.CreateCourse)
	mux.HandleFunc("GET /api/courses/{id}", courseHandler.GetCourse)

	// Curriculum tree editor routes
	mux.HandleFunc("GET /api/courses/{id}/curriculum", curriculumHandler.GetCurriculum)
	mux.HandleFunc("PUT /api/courses/{id}/curriculum", curriculumHandler.SaveCurriculum)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.Auth(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

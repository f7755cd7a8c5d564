package config

import "os"

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	Debug       bool
	// Seed identifiers (cmd/seed)
	SeedCourseID string
	SeedUserID   string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  env,
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		JWKSURL:      getEnv("JWKS_URL", ""),
		CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:  getTablePrefix(env),
		Debug:        getEnv("DEBUG", getDefaultDebug(env)) == "true",
		SeedCourseID: getEnv("SEED_COURSE_ID", "00000000-0000-0000-0000-000000000001"),
		SeedUserID:   getEnv("SEED_USER_ID", "00000000-0000-0000-0000-000000000002"),
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

// Validation limits for curriculum payloads.
const (
	// MaxNameLength bounds course, section, lecture, and page display names.
	MaxNameLength = 255

	// MaxSlugLength bounds lecture and page URL slugs.
	MaxSlugLength = 100

	// MaxRequestBodyBytes bounds the size of any request body, including a
	// full curriculum tree snapshot.
	MaxRequestBodyBytes = 10 << 20 // 10MB
)

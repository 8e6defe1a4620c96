package validation

import (
	"strings"
)

// ValidateTitle validates goal, insignia and content titles
func ValidateTitle(field, title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return Field(field, "is required")
	}

	if len(trimmed) > 200 {
		return Field(field, "is too long (max 200 characters)")
	}

	return nil
}

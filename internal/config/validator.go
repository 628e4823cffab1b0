package config

import (
	"fmt"
	"os"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate returns every problem found rather than stopping at the first, so
// the CLI can report all of them in one pass. requireCredentials is false for
// dry runs, which never construct the OAuth clients.
func (c *Config) Validate(requireCredentials bool) []ValidationError {
	var errors []ValidationError

	if c.GCP.ProjectID == "" {
		errors = append(errors, ValidationError{
			Field:   "gcp.project_id",
			Message: "a Google Cloud project is required for Vertex AI and Firestore",
		})
	}

	if requireCredentials {
		if _, err := os.Stat(c.Google.CredentialsFile); err != nil {
			errors = append(errors, ValidationError{
				Field:   "google.credentials_file",
				Message: fmt.Sprintf("OAuth client secrets not found at %s", c.Google.CredentialsFile),
			})
		}
	}

	if _, err := time.LoadLocation(c.Google.TimeZone); err != nil {
		errors = append(errors, ValidationError{
			Field:   "google.time_zone",
			Message: fmt.Sprintf("unknown time zone %q", c.Google.TimeZone),
		})
	}

	for _, lang := range c.OCR.Languages {
		if len(lang) != 3 {
			errors = append(errors, ValidationError{
				Field:   "ocr.languages",
				Message: fmt.Sprintf("%q is not a tesseract language code (expected e.g. deu, eng)", lang),
			})
		}
	}

	if c.OCR.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "ocr.workers",
			Message: "workers must be positive",
		})
	}

	return errors
}

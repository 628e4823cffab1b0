package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
gcp:
  project_id: "my-project"
  region: "europe-west3"
  archive_bucket: "my-archive"

google:
  credentials_file: "secrets/credentials.json"
  token_file: "secrets/token.json"
  calendar_id: "family"
  time_zone: "Europe/Berlin"

llm:
  model: "gemini-1.5-flash"

ocr:
  languages: ["deu"]
  dpi: 150
  workers: 2

output:
  dir: "/tmp/out"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "my-project", config.GCP.ProjectID)
	assert.Equal(t, "europe-west3", config.GCP.Region)
	assert.Equal(t, "my-archive", config.GCP.ArchiveBucket)
	assert.Equal(t, "secrets/credentials.json", config.Google.CredentialsFile)
	assert.Equal(t, "family", config.Google.CalendarID)
	assert.Equal(t, "gemini-1.5-flash", config.LLM.Model)
	assert.Equal(t, []string{"deu"}, config.OCR.Languages)
	assert.Equal(t, 150, config.OCR.DPI)
	assert.Equal(t, 2, config.OCR.Workers)
	assert.Equal(t, "/tmp/out", config.Output.Dir)

	// Defaults still fill the gaps.
	assert.Equal(t, "documents", config.GCP.LedgerCollection)
	assert.Equal(t, "@default", config.Google.TaskList)
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, config)

	config, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "us-central1", config.GCP.Region)
	assert.Equal(t, "gemini-1.5-pro", config.LLM.Model)
	assert.Equal(t, []string{"deu", "eng"}, config.OCR.Languages)
	assert.Equal(t, "primary", config.Google.CalendarID)
	assert.Equal(t, "Europe/Berlin", config.Google.TimeZone)
	assert.Equal(t, "token.json", config.Google.TokenFile)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "env-project")
	t.Setenv("VERTEX_AI_REGION", "europe-west4")
	t.Setenv("OCR_LANGUAGES", "deu,eng,fra")
	t.Setenv("OUTPUT_DIR", "/var/out")

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-project", config.GCP.ProjectID)
	assert.Equal(t, "europe-west4", config.GCP.Region)
	assert.Equal(t, []string{"deu", "eng", "fra"}, config.OCR.Languages)
	assert.Equal(t, "/var/out", config.Output.Dir)
}

func TestValidate(t *testing.T) {
	tmpDir := t.TempDir()
	credentials := filepath.Join(tmpDir, "credentials.json")
	require.NoError(t, os.WriteFile(credentials, []byte(`{}`), 0600))

	config, err := Load("")
	require.NoError(t, err)
	config.GCP.ProjectID = "my-project"
	config.Google.CredentialsFile = credentials

	assert.Empty(t, config.Validate(true))

	config.GCP.ProjectID = ""
	config.Google.TimeZone = "Mars/Olympus_Mons"
	config.OCR.Languages = []string{"german"}
	config.OCR.Workers = 0

	errs := config.Validate(true)
	require.Len(t, errs, 4)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
		assert.NotEmpty(t, e.Error())
	}
	assert.Contains(t, fields, "gcp.project_id")
	assert.Contains(t, fields, "google.time_zone")
	assert.Contains(t, fields, "ocr.languages")
	assert.Contains(t, fields, "ocr.workers")
}

func TestValidateWithoutCredentials(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)
	config.GCP.ProjectID = "my-project"
	config.Google.CredentialsFile = filepath.Join(t.TempDir(), "missing-credentials.json")

	// Dry runs never construct the OAuth clients, so the secrets file may be
	// absent.
	assert.Empty(t, config.Validate(false))

	errs := config.Validate(true)
	require.Len(t, errs, 1)
	assert.Equal(t, "google.credentials_file", errs[0].Field)
}

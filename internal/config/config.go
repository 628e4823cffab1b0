package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything the pipeline needs. Values come from a YAML file,
// are overlaid with environment variables, and finally padded with defaults.
type Config struct {
	GCP struct {
		ProjectID        string `yaml:"project_id"`
		Region           string `yaml:"region"`
		LedgerCollection string `yaml:"ledger_collection"`
		ArchiveBucket    string `yaml:"archive_bucket"`
		InboxBucket      string `yaml:"inbox_bucket"`
	} `yaml:"gcp"`

	Google struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		CalendarID      string `yaml:"calendar_id"`
		TaskList        string `yaml:"task_list"`
		TimeZone        string `yaml:"time_zone"`
	} `yaml:"google"`

	LLM struct {
		Model string `yaml:"model"`
	} `yaml:"llm"`

	OCR struct {
		Languages []string `yaml:"languages"`
		DPI       int      `yaml:"dpi"`
		Workers   int      `yaml:"workers"`
	} `yaml:"ocr"`

	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
}

// Load reads the config file at path, falling back through the default
// locations when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		locations := []string{
			"amtspost.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/amtspost/config.yaml"),
		}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	config := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

// FromEnv builds a config from environment variables only. The Cloud Function
// entry point uses this since there is no config file in that runtime.
func FromEnv() *Config {
	config := &Config{}
	mergeWithEnv(config)
	if config.Output.Dir == "" {
		// The function runtime's working directory is read-only.
		config.Output.Dir = os.TempDir()
	}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.GCP.Region == "" {
		config.GCP.Region = "us-central1"
	}
	if config.GCP.LedgerCollection == "" {
		config.GCP.LedgerCollection = "documents"
	}
	if config.Google.CredentialsFile == "" {
		config.Google.CredentialsFile = "credentials.json"
	}
	if config.Google.TokenFile == "" {
		config.Google.TokenFile = "token.json"
	}
	if config.Google.CalendarID == "" {
		config.Google.CalendarID = "primary"
	}
	if config.Google.TaskList == "" {
		config.Google.TaskList = "@default"
	}
	if config.Google.TimeZone == "" {
		config.Google.TimeZone = "Europe/Berlin"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "gemini-1.5-pro"
	}
	if len(config.OCR.Languages) == 0 {
		config.OCR.Languages = []string{"deu", "eng"}
	}
	if config.OCR.DPI == 0 {
		config.OCR.DPI = 300
	}
	if config.OCR.Workers == 0 {
		config.OCR.Workers = 4
	}
	if config.Output.Dir == "" {
		config.Output.Dir = "."
	}
}

func mergeWithEnv(config *Config) {
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		config.GCP.ProjectID = v
	}
	if v := os.Getenv("VERTEX_AI_REGION"); v != "" {
		config.GCP.Region = v
	}
	if v := os.Getenv("LEDGER_COLLECTION"); v != "" {
		config.GCP.LedgerCollection = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		config.GCP.ArchiveBucket = v
	}
	if v := os.Getenv("INBOX_BUCKET"); v != "" {
		config.GCP.InboxBucket = v
	}
	if v := os.Getenv("GOOGLE_OAUTH_CREDENTIALS"); v != "" {
		config.Google.CredentialsFile = v
	}
	if v := os.Getenv("GOOGLE_OAUTH_TOKEN"); v != "" {
		config.Google.TokenFile = v
	}
	if v := os.Getenv("OCR_LANGUAGES"); v != "" {
		config.OCR.Languages = strings.Split(v, ",")
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}
}

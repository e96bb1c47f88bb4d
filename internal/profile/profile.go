package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the runtime configuration for the engine.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory
	Data string
	// DSN points to where the ontology is persisted
	DSN string
	// Driver is the database driver (sqlite or postgres), empty for in-memory only
	Driver string
	// Config is the path to the engine configuration file (rules, scopes, thresholds)
	Config string
	// Version is the current version of the engine
	Version string

	// Renderer configuration
	RendererAPIKey  string // ASI_RENDERER_API_KEY
	RendererBaseURL string // ASI_RENDERER_BASE_URL (default: https://api.openai.com/v1)
	RendererModel   string // ASI_RENDERER_MODEL (default: gpt-4o-mini)
	RendererRPS     int    // ASI_RENDERER_RPS (default: 2)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsRendererEnabled returns true if a renderer API key is configured.
func (p *Profile) IsRendererEnabled() bool {
	return p.RendererAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from ASI_* environment variables.
func (p *Profile) FromEnv() {
	if v := os.Getenv("ASI_MODE"); v != "" {
		p.Mode = v
	}
	if v := os.Getenv("ASI_DATA"); v != "" {
		p.Data = v
	}
	if v := os.Getenv("ASI_DSN"); v != "" {
		p.DSN = v
	}
	if v := os.Getenv("ASI_DRIVER"); v != "" {
		p.Driver = v
	}
	if v := os.Getenv("ASI_CONFIG"); v != "" {
		p.Config = v
	}

	p.RendererAPIKey = os.Getenv("ASI_RENDERER_API_KEY")
	p.RendererBaseURL = getEnvOrDefault("ASI_RENDERER_BASE_URL", "https://api.openai.com/v1")
	p.RendererModel = getEnvOrDefault("ASI_RENDERER_MODEL", "gpt-4o-mini")
	if p.RendererRPS == 0 {
		p.RendererRPS = 2
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	// Persistence is optional; without a driver the ontology is in-memory only.
	if p.Driver == "" {
		return nil
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("asi_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	return nil
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	IntakeRoot  string `toml:"intake_root"`
	LedgerDir   string `toml:"ledger_dir"`
	LogDir      string `toml:"log_dir"`
	JournalPath string `toml:"journal_path"`
}

// Destination describes one intake folder under Paths.IntakeRoot.
type Destination struct {
	Recipient string `toml:"recipient"`
}

// Transform configures the external XSLT processor.
type Transform struct {
	Stylesheet     string `toml:"stylesheet"`
	Processor      string `toml:"processor"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage configures where resource files are published.
type Storage struct {
	Backend          string `toml:"backend"`
	UploaderPath     string `toml:"uploader_path"`
	RemoteRoot       string `toml:"remote_root"`
	VerifyUploads    bool   `toml:"verify_uploads"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	GCSBucket        string `toml:"gcs_bucket"`
	GCSPublicBaseURL string `toml:"gcs_public_base_url"`
}

// Notifications configures operator notifications.
type Notifications struct {
	Transport        string `toml:"transport"`
	From             string `toml:"from"`
	DefaultRecipient string `toml:"default_recipient"`
	SMTPServer       string `toml:"smtp_server"`
	SMTPUser         string `toml:"smtp_user"`
	SMTPPassword     string `toml:"smtp_password"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// Workflow contains scheduler timing.
type Workflow struct {
	PollInterval int `toml:"poll_interval"`
	MinFileAge   int `toml:"min_file_age"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// API configures the optional status HTTP server.
type API struct {
	Bind string `toml:"bind"`
}

// Config encapsulates all configuration values for etdbridge.
//
// Configuration sections by subsystem:
//   - Paths: intake root, ledger, logs, and the submission journal
//   - Destinations: one entry per intake folder with its recipient
//   - Transform: XSLT stylesheet and processor
//   - Storage: asset backend (uploader script or GCS)
//   - Notifications: smtp, ntfy, or none
//   - Workflow: poll interval and file settle window
//   - Logging: log format and level
//   - API: status server bind address
type Config struct {
	Paths         Paths                  `toml:"paths"`
	Destinations  map[string]Destination `toml:"destinations"`
	Transform     Transform              `toml:"transform"`
	Storage       Storage                `toml:"storage"`
	Notifications Notifications          `toml:"notifications"`
	Workflow      Workflow               `toml:"workflow"`
	Logging       Logging                `toml:"logging"`
	API           API                    `toml:"api"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("etdbridge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes to. Intake
// folders are created too so operators can start dropping archives
// immediately.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LedgerDir, c.Paths.LogDir, filepath.Dir(c.Paths.JournalPath)}
	for _, name := range c.DestinationNames() {
		dirs = append(dirs, c.DestinationDir(name))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DestinationNames returns the configured destination folders in sorted order.
func (c *Config) DestinationNames() []string {
	names := make([]string, 0, len(c.Destinations))
	for name := range c.Destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DestinationDir returns the intake folder for a destination.
func (c *Config) DestinationDir(name string) string {
	return filepath.Join(c.Paths.IntakeRoot, name)
}

// Recipient resolves the notification recipient for a destination, falling
// back to notifications.default_recipient.
func (c *Config) Recipient(destination string) (string, bool) {
	if dest, ok := c.Destinations[destination]; ok && strings.TrimSpace(dest.Recipient) != "" {
		return strings.TrimSpace(dest.Recipient), true
	}
	if fallback := strings.TrimSpace(c.Notifications.DefaultRecipient); fallback != "" {
		return fallback, true
	}
	return "", false
}

// LockPath returns the daemon lock file guarding the ledger.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LedgerDir, "etdbridge.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

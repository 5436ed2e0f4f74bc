package config

import (
	"errors"
	"fmt"
	"strings"

	"etdbridge/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDestinations(); err != nil {
		return err
	}
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateWorkflow()
}

func missing(field string) error {
	return fmt.Errorf("%w: %s must be set", services.ErrMissingConfiguration, field)
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.IntakeRoot) == "" {
		return missing("paths.intake_root")
	}
	if strings.TrimSpace(c.Paths.LedgerDir) == "" {
		return missing("paths.ledger_dir")
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		return missing("paths.journal_path")
	}
	return nil
}

func (c *Config) validateDestinations() error {
	if len(c.Destinations) == 0 {
		return fmt.Errorf("%w: at least one [destinations.<name>] table is required", services.ErrMissingConfiguration)
	}
	for _, name := range c.DestinationNames() {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("destinations: %q is not a valid folder name", name)
		}
		if c.Notifications.Transport == TransportNone {
			continue
		}
		if _, ok := c.Recipient(name); !ok {
			return missing(fmt.Sprintf("destinations.%s.recipient (or notifications.default_recipient)", name))
		}
	}
	return nil
}

func (c *Config) validateTransform() error {
	if strings.TrimSpace(c.Transform.Stylesheet) == "" {
		return missing("transform.stylesheet")
	}
	if c.Transform.TimeoutSeconds <= 0 {
		return errors.New("transform.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.TimeoutSeconds <= 0 {
		return errors.New("storage.timeout_seconds must be positive")
	}
	switch c.Storage.Backend {
	case BackendUploader:
		if c.Storage.UploaderPath == "" {
			return missing("storage.uploader_path")
		}
		if c.Storage.RemoteRoot == "" {
			return missing("storage.remote_root")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return missing("storage.gcs_bucket")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	switch c.Notifications.Transport {
	case TransportSMTP:
		if c.Notifications.SMTPServer == "" {
			return missing("notifications.smtp_server")
		}
		if c.Notifications.SMTPUser == "" {
			return missing("notifications.smtp_user")
		}
		if c.Notifications.SMTPPassword == "" {
			return missing("notifications.smtp_password (or " + smtpPasswordEnv + ")")
		}
	case TransportNtfy:
		for _, name := range c.DestinationNames() {
			recipient, _ := c.Recipient(name)
			if !strings.HasPrefix(recipient, "http://") && !strings.HasPrefix(recipient, "https://") {
				return fmt.Errorf("destinations.%s.recipient must be an ntfy topic URL when transport is ntfy", name)
			}
		}
	case TransportNone:
	default:
		return fmt.Errorf("notifications.transport: unsupported value %q", c.Notifications.Transport)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive")
	}
	if c.Workflow.MinFileAge < 0 {
		return errors.New("workflow.min_file_age must be zero or positive")
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
)

const smtpPasswordEnv = "ETDBRIDGE_SMTP_PASSWORD"

func (c *Config) normalize() error {
	var err error
	if c.Paths.IntakeRoot, err = expandPath(c.Paths.IntakeRoot); err != nil {
		return fmt.Errorf("paths.intake_root: %w", err)
	}
	if c.Paths.LedgerDir, err = expandPath(c.Paths.LedgerDir); err != nil {
		return fmt.Errorf("paths.ledger_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	if c.Transform.Stylesheet, err = expandPath(c.Transform.Stylesheet); err != nil {
		return fmt.Errorf("transform.stylesheet: %w", err)
	}

	if c.Destinations == nil {
		c.Destinations = map[string]Destination{}
	}
	for name, dest := range c.Destinations {
		dest.Recipient = strings.TrimSpace(dest.Recipient)
		c.Destinations[name] = dest
	}

	c.Transform.Processor = strings.TrimSpace(c.Transform.Processor)
	if c.Transform.Processor == "" {
		c.Transform.Processor = defaultProcessor
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.UploaderPath = strings.TrimSpace(c.Storage.UploaderPath)
	if strings.HasPrefix(c.Storage.UploaderPath, "~") || strings.ContainsRune(c.Storage.UploaderPath, '/') {
		if c.Storage.UploaderPath, err = expandPath(c.Storage.UploaderPath); err != nil {
			return fmt.Errorf("storage.uploader_path: %w", err)
		}
	}
	c.Storage.RemoteRoot = strings.TrimRight(strings.TrimSpace(c.Storage.RemoteRoot), "/")
	c.Storage.GCSBucket = strings.TrimSpace(c.Storage.GCSBucket)
	c.Storage.GCSPublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.GCSPublicBaseURL), "/")
	if c.Storage.GCSPublicBaseURL == "" && c.Storage.GCSBucket != "" {
		c.Storage.GCSPublicBaseURL = defaultGCSPublicHost + "/" + c.Storage.GCSBucket
	}

	c.Notifications.Transport = strings.ToLower(strings.TrimSpace(c.Notifications.Transport))
	if c.Notifications.Transport == "" {
		c.Notifications.Transport = defaultNotificationTransport
	}
	c.Notifications.From = strings.TrimSpace(c.Notifications.From)
	if c.Notifications.From == "" {
		c.Notifications.From = defaultNotificationFrom
	}
	c.Notifications.DefaultRecipient = strings.TrimSpace(c.Notifications.DefaultRecipient)
	c.Notifications.SMTPServer = strings.TrimSpace(c.Notifications.SMTPServer)
	c.Notifications.SMTPUser = strings.TrimSpace(c.Notifications.SMTPUser)
	if c.Notifications.SMTPPassword == "" {
		c.Notifications.SMTPPassword = os.Getenv(smtpPasswordEnv)
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	c.API.Bind = strings.TrimSpace(c.API.Bind)
	return nil
}

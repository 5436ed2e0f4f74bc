package config

const (
	defaultConfigPath            = "~/.config/etdbridge/config.toml"
	defaultIntakeRoot            = "~/etdbridge/intake"
	defaultLedgerDir             = "~/.local/share/etdbridge"
	defaultLogDir                = "~/.local/share/etdbridge/logs"
	defaultJournalPath           = "~/.local/share/etdbridge/journal.db"
	defaultStylesheet            = "~/.config/etdbridge/result.xsl"
	defaultProcessor             = "xsltproc"
	defaultTransformTimeout      = 120
	defaultStorageBackend        = BackendUploader
	defaultUploaderPath          = "dropbox_uploader.sh"
	defaultStorageTimeout        = 600
	defaultGCSPublicHost         = "https://storage.googleapis.com"
	defaultNotificationTransport = TransportSMTP
	defaultNotificationFrom      = "etdbridge@localhost"
	defaultRequestTimeout        = 10
	defaultPollInterval          = 1
	defaultMinFileAge            = 5
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

// Storage backends.
const (
	BackendUploader = "uploader"
	BackendGCS      = "gcs"
)

// Notification transports.
const (
	TransportSMTP = "smtp"
	TransportNtfy = "ntfy"
	TransportNone = "none"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IntakeRoot:  defaultIntakeRoot,
			LedgerDir:   defaultLedgerDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Destinations: map[string]Destination{},
		Transform: Transform{
			Stylesheet:     defaultStylesheet,
			Processor:      defaultProcessor,
			TimeoutSeconds: defaultTransformTimeout,
		},
		Storage: Storage{
			Backend:        defaultStorageBackend,
			UploaderPath:   defaultUploaderPath,
			TimeoutSeconds: defaultStorageTimeout,
		},
		Notifications: Notifications{
			Transport:      defaultNotificationTransport,
			From:           defaultNotificationFrom,
			RequestTimeout: defaultRequestTimeout,
		},
		Workflow: Workflow{
			PollInterval: defaultPollInterval,
			MinFileAge:   defaultMinFileAge,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

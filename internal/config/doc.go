// Package config loads, normalizes, and validates etdbridge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ETDBRIDGE_SMTP_PASSWORD. The Config value is built once at startup and
// handed to every component constructor; nothing reads configuration from
// package-level state.
//
// Missing required settings are reported as errors wrapping
// services.ErrMissingConfiguration so the entrypoint can exit before the
// ledger is touched.
package config

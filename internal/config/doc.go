// Package config loads, normalizes, and validates stutterprep configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as STUTTERPREP_LABELS and STUTTERPREP_RAW_DIR. Every stage
// reads its roots and tuning constants from the Config type so the CLI and
// tests share one source of truth.
package config

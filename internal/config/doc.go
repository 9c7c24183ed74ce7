// Package config loads, normalizes, and validates gnurante configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as OPENROUTER_API_KEY. The Config type centralizes every knob
// the CLI and HTTP service need, from translation backend credentials to
// subtitle timing policy.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language codes, and clear validation errors.
package config

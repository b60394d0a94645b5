// Package config loads the formwork runtime configuration from a YAML file, a .env
// file and FORMWORK_* environment variables, in increasing precedence.
package config

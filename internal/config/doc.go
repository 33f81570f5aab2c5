// Package config resolves diaria's settings.
//
// Values are layered, later layers winning: built-in defaults under the
// XDG data directory, the YAML file ($XDG_CONFIG_HOME/diaria/config.yaml
// or --config), DIARIA_* environment variables, then command-line flags
// (applied by the cmd package). Unknown keys in the file are an error so
// that typos do not silently fall back to defaults.
package config

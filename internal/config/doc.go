// Package config provides user configuration management for agif-tool.
//
// This package manages a YAML-based configuration file holding defaults for
// the serial console, the output directory and an optional extra layout
// catalog. The configuration follows OS-specific conventions for storage
// location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/agif/config.yaml or $HOME/.config/agif/config.yaml
//   - macOS: $HOME/.config/agif/config.yaml
//   - Windows: %LOCALAPPDATA%\agif\config.yaml
//
// AGIF_CONFIG overrides the location entirely.
//
// # Usage Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	port := cfg.Serial.Port
//
// Missing files and missing sections fall back to NewConfig's values.
package config

package plugin

import "errors"

// Sentinel errors for the plugin registry.
var (
	ErrNilPlugin         = errors.New("plugin cannot be nil")
	ErrEmptyName         = errors.New("plugin name cannot be empty")
	ErrAlreadyRegistered = errors.New("plugin already registered")
)

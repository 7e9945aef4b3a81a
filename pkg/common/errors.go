package common

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid setting detected before a batch starts.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("Configuration Error: %s", e.Message)
	}
	return fmt.Sprintf("Configuration Error: %s: %s", e.Field, e.Message)
}

// ScanError reports a problem with the scan root itself.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("Scan Error: %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

func NewConfigError(field, message string) error {
	return &ConfigError{Field: field, Message: message}
}

func NewScanError(root string, err error) error {
	return &ScanError{Root: root, Err: err}
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

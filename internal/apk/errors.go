package apk

import "fmt"

// ConfigError reports invalid input or an ambiguous build environment.
// It is raised before any work starts.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a ConfigError for the given input field.
func NewConfigError(field, msg string) *ConfigError {
	return &ConfigError{Field: field, Message: msg}
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ResolutionError reports a library found in the package that has no
// counterpart in the build output.
type ResolutionError struct {
	Library  string
	BuildDir string
}

// NewResolutionError creates a ResolutionError.
func NewResolutionError(lib, buildDir string) *ResolutionError {
	return &ResolutionError{Library: lib, BuildDir: buildDir}
}

// Error implements the error interface for ResolutionError.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot locate library %s in %s", e.Library, e.BuildDir)
}

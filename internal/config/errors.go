package config

import "fmt"

// PermissionError means the settings file at ~/.cadence.json could not
// be read or written. Fix carries a copy-pasteable shell command.
type PermissionError struct {
	Path    string
	Op      string // "read" or "write"
	Fix     string
	Details string
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("permission denied (cannot %s settings): %s\n", e.Op, e.Path)
	if e.Details != "" {
		msg += e.Details + "\n"
	}
	msg += "💡 Fix: " + e.Fix
	return msg
}

// ConfigNotFoundError means no settings file exists yet. Callers that
// can run with defaults (LoadOrCreate) swallow it; the Hint tells
// everyone else how to get one.
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("settings file not found: %s\n\n💡 %s", e.Path, e.Hint)
}

// InvalidConfigError covers both unparsable JSON and settings that
// fail validation, such as an empty active model or a negative
// privacy epsilon.
type InvalidConfigError struct {
	Path    string
	Message string
	Hint    string
}

func (e *InvalidConfigError) Error() string {
	msg := fmt.Sprintf("invalid settings: %s\n", e.Path)
	if e.Message != "" {
		msg += e.Message + "\n"
	}
	if e.Hint != "" {
		msg += "💡 " + e.Hint
	}
	return msg
}

package config

import "fmt"

// DescriptorError reports an invalid singleton descriptor.
type DescriptorError struct {
	Path      string
	Component string
	Msg       string
}

func (e *DescriptorError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("descriptor %s: singleton %q: %s", e.Path, e.Component, e.Msg)
	}
	return fmt.Sprintf("descriptor %s: %s", e.Path, e.Msg)
}

// SettingsError reports an invalid value in the settings file.
type SettingsError struct {
	Path  string
	Field string
	Msg   string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("settings %s: %s: %s", e.Path, e.Field, e.Msg)
}

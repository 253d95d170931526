// Package navigation encodes the navigable state of a perspective (its query, its settings and
// the view cursor) into compact URL query parameters and back.
package navigation

import (
	"encoding/json"
	"slices"
)

// PerspectiveSettings are the per-perspective navigation settings.
type PerspectiveSettings struct {
	ViewFolderPath []string `json:"viewFolderPath,omitempty"`
}

// ShortenedPerspectiveSettings is the compact form carried in URLs.
type ShortenedPerspectiveSettings struct {
	V []string `json:"v"`
}

func Shorten(settings *PerspectiveSettings) *ShortenedPerspectiveSettings {
	if settings == nil {
		return nil
	}
	return &ShortenedPerspectiveSettings{V: slices.Clone(settings.ViewFolderPath)}
}

func Prolong(settings *ShortenedPerspectiveSettings) *PerspectiveSettings {
	if settings == nil {
		return nil
	}
	return &PerspectiveSettings{ViewFolderPath: slices.Clone(settings.V)}
}

// Stringify returns the JSON form of the settings, or "" for nil settings.
func Stringify(settings *ShortenedPerspectiveSettings) string {
	if settings == nil {
		return ""
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return ""
	}
	return string(raw)
}

// Parse reads settings written by Stringify. Malformed or empty input yields nil.
func Parse(value string) *ShortenedPerspectiveSettings {
	if value == "" {
		return nil
	}
	var settings *ShortenedPerspectiveSettings
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return nil
	}
	return settings
}

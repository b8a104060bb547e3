package manifest

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Loader handles loading and parsing of an archive manifest
type Loader struct {
	filePath string
}

// NewLoader creates a new manifest loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the manifest file path
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the manifest file
func (l *Loader) Load() (Manifest, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest after expanding {{VAR}} placeholders from the
// environment. Unset variables expand to an empty string.
func Parse(data []byte) (Manifest, error) {
	data = expandTemplateVariables(data)

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest yaml: %w", err)
	}
	return m, nil
}

// expandTemplateVariables replaces {{NAME}} with the value of $NAME
// Example: {{ARCHIVE_HOST}} -> "archive.example.org"
func expandTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAllFunc(data, func(match []byte) []byte {
		name := templateVar.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

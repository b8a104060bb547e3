package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "archive.yaml")

	yamlContent := `---
originals:
  - url: http://example.com/
    mementos:
      - location: /memento/2010
        datetime: "Fri, 01 Jan 2010 00:00:00 GMT"
      - location: /memento/2011
        datetime: 2011-03-01T00:00:00Z
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	loader := NewLoader(yamlPath)
	m, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(m.Originals) != 1 {
		t.Fatalf("Load() returned %d originals, want 1", len(m.Originals))
	}
	if got := len(m.Originals[0].Mementos); got != 2 {
		t.Errorf("Load() returned %d mementos, want 2", got)
	}
	if loader.Path() != yamlPath {
		t.Errorf("Path() = %s, want %s", loader.Path(), yamlPath)
	}
}

func TestLoaderLoadWithTemplateVariables(t *testing.T) {
	t.Setenv("ARCHIVE_HOST", "archive.example.org")

	m, err := Parse([]byte(`
originals:
  - url: http://example.com/
    mementos:
      - location: https://{{ARCHIVE_HOST}}/web/1
        datetime: 2010-01-01T00:00:00Z
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := "https://archive.example.org/web/1"
	if got := m.Originals[0].Mementos[0].Location; got != want {
		t.Errorf("Location = %s, want %s", got, want)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/archive.yaml")
	if _, err := loader.Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("originals: [unclosed")); err == nil {
		t.Error("Parse() with invalid YAML should return error")
	}
}

func TestExpandTemplateVariables(t *testing.T) {
	t.Setenv("MANIFEST_TEST_VAR", "value")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single variable",
			input:    "url: {{MANIFEST_TEST_VAR}}",
			expected: "url: value",
		},
		{
			name:     "spaces inside braces",
			input:    "url: {{ MANIFEST_TEST_VAR }}",
			expected: "url: value",
		},
		{
			name:     "unset variable",
			input:    "url: {{MANIFEST_TEST_UNSET}}",
			expected: "url: ",
		},
		{
			name:     "no variables",
			input:    "url: http://example.com/",
			expected: "url: http://example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(expandTemplateVariables([]byte(tt.input)))
			if got != tt.expected {
				t.Errorf("expandTemplateVariables() = %q, want %q", got, tt.expected)
			}
		})
	}
}

package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sources.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}
	return path
}

const validSourcesYAML = `
sources:
  - name: "BBC World"
    url: "https://feeds.bbci.co.uk/news/world/rss.xml"
    bias: "LC"
  - name: "Fox News"
    url: "https://moxie.foxnews.com/google-publisher/world.xml"
    bias: "R"
  - name: "Disabled Wire"
    url: "https://example.org/feed.xml"
    enabled: false
allowed_domains:
  - "reuters.com"
`

func TestRegistry_Run(t *testing.T) {
	registry := NewRegistry(writeSourcesFile(t, validSourcesYAML))

	if err := registry.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if registry.GetSourceCount() != 3 {
		t.Errorf("Expected 3 sources, got %d", registry.GetSourceCount())
	}
	if enabled := registry.GetEnabledSources(); len(enabled) != 2 {
		t.Errorf("Expected 2 enabled sources, got %d", len(enabled))
	}

	overrides := registry.BiasOverrides()
	if overrides["BBC World"] != "LC" {
		t.Errorf("Expected BBC World bias override LC, got %q", overrides["BBC World"])
	}
	if overrides["Fox News"] != "R" {
		t.Errorf("Expected Fox News bias override R, got %q", overrides["Fox News"])
	}
}

func TestRegistry_IsAllowedURL(t *testing.T) {
	registry := NewRegistry(writeSourcesFile(t, validSourcesYAML))
	if err := registry.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	tests := []struct {
		name    string
		url     string
		allowed bool
	}{
		{"registered source host", "https://feeds.bbci.co.uk/news/world/rss.xml", true},
		{"allowed domain", "https://reuters.com/rss", true},
		{"subdomain of allowed domain", "https://feeds.reuters.com/world", true},
		{"unregistered host", "https://evil.example.com/feed", false},
		{"suffix without dot boundary", "https://notreuters.com/rss", false},
		{"invalid url", "://not-a-url", false},
		{"empty url", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := registry.IsAllowedURL(tt.url); got != tt.allowed {
				t.Errorf("IsAllowedURL(%q) = %v, expected %v", tt.url, got, tt.allowed)
			}
		})
	}
}

func TestRegistry_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no sources", "sources: []\n"},
		{"missing name", "sources:\n  - url: \"https://example.com/feed\"\n"},
		{"missing url", "sources:\n  - name: \"A\"\n"},
		{"invalid bias", "sources:\n  - name: \"A\"\n    url: \"https://example.com/feed\"\n    bias: \"FARLEFT\"\n"},
		{"duplicate names", "sources:\n  - name: \"A\"\n    url: \"https://example.com/a\"\n  - name: \"A\"\n    url: \"https://example.com/b\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry(writeSourcesFile(t, tt.yaml))
			if err := registry.Run(); err == nil {
				t.Error("Expected a validation error, got nil")
			}
		})
	}
}

func TestRegistry_MissingFile(t *testing.T) {
	registry := NewRegistry(filepath.Join(t.TempDir(), "missing.yml"))
	if err := registry.Run(); err == nil {
		t.Error("Expected an error for a missing sources file")
	}
}

package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds the fixed allow-list of feed sources. It is pure
// configuration: the relay refuses any URL whose host is not covered by
// a registered source or an explicitly allowed domain.
type Registry struct {
	sourcesFile string
	sources     []Source
	domains     map[string]bool
	mu          sync.RWMutex
}

func NewRegistry(sourcesFile string) *Registry {
	return &Registry{
		sourcesFile: sourcesFile,
		domains:     make(map[string]bool),
	}
}

func (r *Registry) Run() error {
	data, err := os.ReadFile(r.sourcesFile)
	if err != nil {
		return fmt.Errorf("failed to read sources file: %w", err)
	}

	var config RegistryConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse sources file: %w", err)
	}

	if err := r.validateConfig(&config); err != nil {
		return fmt.Errorf("invalid sources file %s: %w", r.sourcesFile, err)
	}

	domains := make(map[string]bool)
	for _, source := range config.Sources {
		if host := hostOf(source.URL); host != "" {
			domains[host] = true
		}
	}
	for _, domain := range config.AllowedDomains {
		domains[strings.ToLower(domain)] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = config.Sources
	r.domains = domains

	slog.Debug("Source registry loaded", "sources", len(r.sources), "allowed_domains", len(r.domains))

	return nil
}

func (r *Registry) GetSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sourcesCopy := make([]Source, len(r.sources))
	copy(sourcesCopy, r.sources)
	return sourcesCopy
}

func (r *Registry) GetEnabledSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enabled := make([]Source, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			enabled = append(enabled, source)
		}
	}
	return enabled
}

func (r *Registry) GetSourceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// IsAllowedURL reports whether the relay may fetch the given URL. A host
// is allowed when it matches a registered domain exactly or is a
// subdomain of one.
func (r *Registry) IsAllowedURL(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.domains[host] {
		return true
	}
	for domain := range r.domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// BiasOverrides returns the source-name to bias-label pairs declared in
// the registry, used to extend the built-in bias table.
func (r *Registry) BiasOverrides() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overrides := make(map[string]string)
	for _, source := range r.sources {
		if source.Bias != "" {
			overrides[source.Name] = source.Bias
		}
	}
	return overrides
}

func (r *Registry) validateConfig(config *RegistryConfig) error {
	if len(config.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	validBias := map[string]bool{"": true, "L": true, "LC": true, "C": true, "RC": true, "R": true}

	seen := make(map[string]bool)
	for i, source := range config.Sources {
		if source.Name == "" {
			return fmt.Errorf("source at index %d: name is required", i)
		}
		if source.URL == "" {
			return fmt.Errorf("source %s: URL is required", source.Name)
		}
		if hostOf(source.URL) == "" {
			return fmt.Errorf("source %s: invalid URL %s", source.Name, source.URL)
		}
		if !validBias[source.Bias] {
			return fmt.Errorf("source %s: invalid bias label %s", source.Name, source.Bias)
		}
		if seen[source.Name] {
			return fmt.Errorf("duplicate source name: %s", source.Name)
		}
		seen[source.Name] = true
	}

	return nil
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

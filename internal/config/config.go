package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PARKSYNC_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: PARKSYNC_SITE_URL -> site_url, etc.
	if err := k.Load(env.Provider("PARKSYNC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PARKSYNC_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// NormalizeSiteURL trims whitespace, strips any trailing slash, and
// defaults the scheme to https. The returned URL is the canonical form
// persisted everywhere a site URL appears.
func NormalizeSiteURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("site URL is empty")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid site URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("site URL %q has no host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""
	return u.String(), nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.SiteURL != "" {
		if _, err := NormalizeSiteURL(c.SiteURL); err != nil {
			return err
		}
	}

	if !c.Community.SyncInterval.Valid() {
		return fmt.Errorf("invalid community sync_interval %q: must be manual, daily, or hourly_n with n in {1,2,3,4,6,8,12}", c.Community.SyncInterval)
	}
	if !c.Home.SyncInterval.Valid() {
		return fmt.Errorf("invalid home sync_interval %q: must be manual, daily, or hourly_n with n in {1,2,3,4,6,8,12}", c.Home.SyncInterval)
	}

	for kind := range c.FieldMappings {
		if SyncKind(kind) != KindCommunity && SyncKind(kind) != KindHome {
			return fmt.Errorf("field_mappings: unknown kind %q", kind)
		}
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be non-negative")
	}

	return nil
}

// Endpoint returns the endpoint settings for a kind.
func (c *Config) Endpoint(kind SyncKind) EndpointSettings {
	if kind == KindHome {
		return c.Home
	}
	return c.Community
}

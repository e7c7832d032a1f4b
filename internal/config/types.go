package config

import (
	"strconv"
	"time"
)

// SyncKind identifies which canonical entity an endpoint syncs into.
type SyncKind string

const (
	KindCommunity SyncKind = "community"
	KindHome      SyncKind = "home"
)

// SyncInterval is the advisory cadence for scheduled imports.
type SyncInterval string

const (
	IntervalManual SyncInterval = "manual"
	IntervalDaily  SyncInterval = "daily"
)

// HourlySteps is the allowed set of n for hourly_n intervals.
var HourlySteps = []int{1, 2, 3, 4, 6, 8, 12}

// Hourly returns the interval value for "every n hours".
func Hourly(n int) SyncInterval {
	return SyncInterval("hourly_" + strconv.Itoa(n))
}

// Duration converts the interval into a wall-clock period. The second
// return value is false for manual (never scheduled) and unknown values.
func (s SyncInterval) Duration() (time.Duration, bool) {
	switch s {
	case IntervalManual, "":
		return 0, false
	case IntervalDaily:
		return 24 * time.Hour, true
	}
	for _, n := range HourlySteps {
		if s == Hourly(n) {
			return time.Duration(n) * time.Hour, true
		}
	}
	return 0, false
}

// Valid reports whether the interval is one of the recognized values.
func (s SyncInterval) Valid() bool {
	if s == IntervalManual || s == IntervalDaily {
		return true
	}
	_, ok := s.Duration()
	return ok
}

// EndpointSettings configures one synced endpoint kind.
type EndpointSettings struct {
	Endpoint     string       `yaml:"endpoint" koanf:"endpoint"`
	SyncInterval SyncInterval `yaml:"sync_interval" koanf:"sync_interval"`
}

// CrawlConfig bounds URL-source crawling.
type CrawlConfig struct {
	Include  []string `yaml:"include" koanf:"include"`
	Exclude  []string `yaml:"exclude" koanf:"exclude"`
	MaxPages int      `yaml:"max_pages" koanf:"max_pages"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Config is the top-level parksync configuration, corresponding to .parksync.yml.
type Config struct {
	SiteURL   string           `yaml:"site_url" koanf:"site_url"`
	AgentID   string           `yaml:"agent_id" koanf:"agent_id"`
	DataDir   string           `yaml:"data_dir" koanf:"data_dir"`
	Community EndpointSettings `yaml:"community" koanf:"community"`
	Home      EndpointSettings `yaml:"home" koanf:"home"`
	// FieldMappings maps kind -> canonical field key -> remote source path.
	FieldMappings  map[string]map[string]string `yaml:"field_mappings" koanf:"field_mappings"`
	EmbeddingModel string                       `yaml:"embedding_model" koanf:"embedding_model"`
	ExtractModel   string                       `yaml:"extract_model" koanf:"extract_model"`
	OllamaURL      string                       `yaml:"ollama_url" koanf:"ollama_url"`
	Crawl          CrawlConfig                  `yaml:"crawl" koanf:"crawl"`
	Server         ServerConfig                 `yaml:"server" koanf:"server"`
}

package config

// DefaultExcludes are URL path patterns never followed when crawling a
// url knowledge source.
var DefaultExcludes = []string{
	"wp-admin/**",
	"wp-login*",
	"feed/**",
	"**/feed",
	"cart/**",
	"checkout/**",
	"*.pdf",
	"*.zip",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		AgentID: "default",
		DataDir: ".parksync",
		Community: EndpointSettings{
			Endpoint:     "communities",
			SyncInterval: IntervalManual,
		},
		Home: EndpointSettings{
			Endpoint:     "homes",
			SyncInterval: IntervalManual,
		},
		FieldMappings:  map[string]map[string]string{},
		EmbeddingModel: "text-embedding-3-small",
		ExtractModel:   "gpt-4o-mini",
		Crawl: CrawlConfig{
			Include:  []string{"**"},
			Exclude:  DefaultExcludes,
			MaxPages: 100,
		},
		Server: ServerConfig{Port: 8722},
	}
}

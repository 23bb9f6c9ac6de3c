package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   5000,
			MaxRequestSize:         16 * 1024 * 1024,
			ShutdownTimeoutSeconds: 5,
		},
		Storage: StorageConfig{
			Path:        ".",
			CardsDir:    "static/history_user",
			CounterFile: "story_counter.json",
			IndexFile:   "storycard.db",
		},
		Allocator: AllocatorConfig{
			Mode:    "file",
			Locking: true,
		},
		Render: RenderConfig{
			FontPath:  "",
			TitleSize: 24,
			BodySize:  18,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   "",
		},
	}
}

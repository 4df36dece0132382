package config

// Config holds the reload plugin's options and the dev server settings.
// Defaults are set in DefaultConfig() and can be overridden by config files.
// NOTE: Present keys override defaults, including explicit zero values.
// Missing keys and JSON nulls leave the defaults untouched.
type Config struct {
	// Entry lists glob patterns whose changes force a full reload.
	Entry []string `json:"entry"`
	// Ignore lists glob patterns that never force a reload, even when matched by Entry.
	Ignore []string `json:"ignore"`

	InjectViteClient   bool `json:"injectViteClient"`   // Default: true
	InjectReactRefresh bool `json:"injectReactRefresh"` // Default: false

	// Base is the public base path the injected script URLs are prefixed with.
	Base string `json:"base"` // Default: "/"

	// RespectGitignore treats files ignored by <root>/.gitignore as ignored.
	RespectGitignore bool `json:"respectGitignore"` // Default: false

	Server ServerConfig `json:"server"`
	Log    LogConfig    `json:"log"`
}

type ServerConfig struct {
	Listen string `json:"listen"` // Default: 127.0.0.1:5174
	// Upstream is the SSR application the dev server proxies pages from.
	Upstream string `json:"upstream"`
	// ViteURL is an optional Vite dev server that serves module requests.
	ViteURL string `json:"viteURL"`
}

type LogConfig struct {
	Level      string   `json:"level"`      // Default: info
	Writer     []string `json:"writer"`     // Default: ["console"]; "console" and/or "file"
	File       string   `json:"file"`       // Default: ssrreload.log
	MaxSizeMB  int      `json:"maxSizeMB"`  // Default: 10
	MaxBackups int      `json:"maxBackups"` // Default: 3
	MaxAgeDays int      `json:"maxAgeDays"` // Default: 7
}

// DefaultEntry is used when no entry patterns are configured.
var DefaultEntry = []string{"src/**/*.ts", "src/**/*.tsx"}

// EntryPatterns returns the configured entry patterns, or DefaultEntry when
// none are set. An empty list means "use the defaults", not "match nothing".
func (c *Config) EntryPatterns() []string {
	if len(c.Entry) == 0 {
		return DefaultEntry
	}
	return c.Entry
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Entry:              append([]string(nil), DefaultEntry...),
		Ignore:             []string{},
		InjectViteClient:   true,
		InjectReactRefresh: false,
		Base:               "/",
		RespectGitignore:   false,
		Server: ServerConfig{
			Listen: "127.0.0.1:5174",
		},
		Log: LogConfig{
			Level:      "info",
			Writer:     []string{"console"},
			File:       "ssrreload.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// ValidationError collects every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Problems, "; "))
}

// Validate checks config values for correctness.
// Returns a *ValidationError listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	// Patterns
	errs = append(errs, checkPatterns("entry", c.Entry)...)
	errs = append(errs, checkPatterns("ignore", c.Ignore)...)

	if !strings.HasPrefix(c.Base, "/") {
		errs = append(errs, "base must start with /")
	}

	// Server
	if c.Server.Listen == "" {
		errs = append(errs, "server.listen must not be empty")
	}
	if c.Server.Upstream != "" && !isHTTPURL(c.Server.Upstream) {
		errs = append(errs, "server.upstream must be an absolute http(s) URL")
	}
	if c.Server.ViteURL != "" && !isHTTPURL(c.Server.ViteURL) {
		errs = append(errs, "server.viteURL must be an absolute http(s) URL")
	}

	// Logging
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	for _, w := range c.Log.Writer {
		if w != "console" && w != "file" {
			errs = append(errs, fmt.Sprintf("log.writer %q must be console or file", w))
		}
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, "log.maxSizeMB must be >= 0")
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, "log.maxBackups must be >= 0")
	}
	if c.Log.MaxAgeDays < 0 {
		errs = append(errs, "log.maxAgeDays must be >= 0")
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

func checkPatterns(key string, patterns []string) []string {
	var errs []string
	for i, p := range patterns {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			errs = append(errs, fmt.Sprintf("%s[%d] must not be empty", key, i))
			continue
		}
		if !doublestar.ValidatePattern(strings.ReplaceAll(trimmed, `\`, "/")) {
			errs = append(errs, fmt.Sprintf("%s[%d] %q is not a valid glob", key, i, p))
		}
	}
	return errs
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

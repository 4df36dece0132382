package reload

// Broadcaster delivers a full-reload signal to connected browsers.
type Broadcaster interface {
	FullReload() error
}

// IgnoreFilter is an extra veto on reloads, e.g. the project's .gitignore.
type IgnoreFilter interface {
	ShouldIgnore(relativePath string, isDir bool) bool
}

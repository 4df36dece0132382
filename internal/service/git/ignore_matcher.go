package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// GitignoreReadError is returned when .gitignore cannot be read.
type GitignoreReadError struct {
	Path  string
	Cause error
}

func (e *GitignoreReadError) Error() string {
	return fmt.Sprintf("failed to read .gitignore at %s: %v", e.Path, e.Cause)
}
func (e *GitignoreReadError) Unwrap() error { return e.Cause }

// fileSystem defines the minimal filesystem interface needed for gitignore loading.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// IgnoreMatcher implements gitignore pattern matching using go-git's gitignore matcher.
type IgnoreMatcher struct {
	matcher gitignore.Matcher
}

// NewIgnoreMatcher creates a new gitignore matcher by loading .gitignore from the project root.
// Returns a matcher that never ignores if .gitignore doesn't exist (no error).
func NewIgnoreMatcher(root string, fs fileSystem) (*IgnoreMatcher, error) {
	if root == "" {
		panic("root is required")
	}
	if fs == nil {
		panic("fs is required")
	}
	gitignorePath := filepath.Join(root, ".gitignore")

	if _, err := fs.Stat(gitignorePath); err != nil {
		return &IgnoreMatcher{matcher: nil}, nil
	}

	content, err := fs.ReadFile(gitignorePath)
	if err != nil {
		return nil, &GitignoreReadError{Path: gitignorePath, Cause: err}
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	return &IgnoreMatcher{matcher: gitignore.NewMatcher(patterns)}, nil
}

// ShouldIgnore checks if a root-relative path matches any gitignore patterns.
// Returns false if no .gitignore was loaded.
func (m *IgnoreMatcher) ShouldIgnore(relativePath string, isDir bool) bool {
	if m.matcher == nil {
		return false
	}

	segments := splitPath(relativePath)
	if len(segments) == 0 {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

// splitPath splits a path into segments for gitignore matching.
// It normalizes path separators and filters out empty and "." segments.
func splitPath(path string) []string {
	if path == "" {
		return []string{}
	}

	normalized := strings.ReplaceAll(filepath.ToSlash(path), `\`, "/")

	parts := strings.Split(normalized, "/")
	var segments []string
	for _, part := range parts {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}

	return segments
}

// NoOpMatcher never ignores any files.
// It is used when gitignore support is disabled.
type NoOpMatcher struct{}

// ShouldIgnore always returns false for NoOpMatcher.
func (m *NoOpMatcher) ShouldIgnore(relativePath string, isDir bool) bool {
	return false
}

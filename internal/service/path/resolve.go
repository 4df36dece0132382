package path

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps file paths to and from a project root.
// Unlike a sandbox boundary, paths outside the root are allowed; callers are
// told whether the path escapes so they can fall back to absolute matching.
type Resolver struct {
	root string
}

// NewResolver creates a new path resolver for the given root.
func NewResolver(root string) *Resolver {
	return &Resolver{
		root: filepath.Clean(root),
	}
}

// Root returns the cleaned project root.
func (r *Resolver) Root() string {
	return r.root
}

// CanonicaliseRoot canonicalises a project root path by making it absolute and resolving symlinks.
// Returns an error if the path doesn't exist or isn't a directory.
func CanonicaliseRoot(root string) (string, error) {
	if root == "" {
		return "", &RootError{Root: root, Cause: ErrRootNotSet}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &RootError{Root: root, Cause: err}
	}

	// Resolve symlinks so watcher events and candidate paths agree
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &RootError{Root: absRoot, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &RootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &RootError{Root: resolved, Cause: fmt.Errorf("%w: %s", ErrNotADirectory, resolved)}
	}
	return resolved, nil
}

// Abs resolves a path to absolute form. Relative paths are joined onto the root.
func (r *Resolver) Abs(path string) string {
	if IsAbs(path) {
		return filepath.Clean(filepath.FromSlash(path))
	}
	return filepath.Clean(filepath.Join(r.root, filepath.FromSlash(path)))
}

// Rel returns path relative to the root in forward-slash form.
// escapes reports whether the relative form leaves the root ("../...").
// The root itself is returned as "".
func (r *Resolver) Rel(path string) (rel string, escapes bool) {
	abs := r.Abs(path)

	out, err := filepath.Rel(r.root, abs)
	if err != nil {
		// Different volumes on Windows: there is no relative form
		return ToSlash(abs), true
	}

	out = ToSlash(out)
	if out == "." {
		return "", false
	}
	return out, out == ".." || strings.HasPrefix(out, "../")
}

// IsAbs reports whether p is an absolute filesystem path on this platform.
// Slash-converted Windows paths ("C:/x") count as absolute.
func IsAbs(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	return filepath.IsAbs(filepath.FromSlash(p))
}

// ToSlash converts both separator styles to "/" regardless of platform.
func ToSlash(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
}

package matcher

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/ssrreload/internal/service/path"
	"github.com/bmatcuk/doublestar/v4"
)

// compiled is one normalized pattern together with the raw text it came from.
type compiled struct {
	Pattern
	source string
	// climbs marks relative globs that start outside root ("../").
	climbs bool
}

// Matcher decides whether a changed file should force a full reload.
// It is immutable after Build and safe for concurrent use.
type Matcher struct {
	resolver *path.Resolver
	entry    []compiled
	ignore   []compiled
}

// Decision explains a match result.
type Decision struct {
	// Matched is the final answer: some entry matched and no ignore did.
	Matched bool
	// Entry is the raw entry pattern that matched, if any.
	Entry string
	// Ignore is the raw ignore pattern that matched, if any.
	Ignore string
}

// Build normalizes and validates entry and ignore patterns against root.
// A malformed pattern fails the whole build; nothing is deferred to match time.
func Build(entry, ignore []string, root string) (*Matcher, error) {
	if root == "" {
		return nil, fmt.Errorf("build matcher: %w", path.ErrRootNotSet)
	}

	m := &Matcher{resolver: path.NewResolver(root)}

	var err error
	if m.entry, err = compileAll("entry", entry, root); err != nil {
		return nil, err
	}
	if m.ignore, err = compileAll("ignore", ignore, root); err != nil {
		return nil, err
	}
	return m, nil
}

func compileAll(kind string, raws []string, root string) ([]compiled, error) {
	out := make([]compiled, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			return nil, &PatternError{Kind: kind, Pattern: raw, Cause: ErrEmptyPattern}
		}
		for _, p := range Normalize(raw, root) {
			if !doublestar.ValidatePattern(p.Glob) {
				return nil, &PatternError{Kind: kind, Pattern: raw, Cause: ErrInvalidPattern}
			}
			climbs := !p.Absolute && (p.Glob == ".." || strings.HasPrefix(p.Glob, "../"))
			out = append(out, compiled{Pattern: p, source: raw, climbs: climbs})
		}
	}
	return out, nil
}

// Matches reports whether file matches at least one entry pattern and no
// ignore pattern. Relative inputs are taken as relative to root.
func (m *Matcher) Matches(file string) bool {
	return m.Decide(file).Matched
}

// Decide is Matches with the patterns responsible for the answer.
func (m *Matcher) Decide(file string) Decision {
	var d Decision
	if strings.TrimSpace(file) == "" {
		return d
	}

	rel, escapes := m.resolver.Rel(path.ToSlash(file))
	if rel == "" {
		// The root itself is a directory, never a changed source file
		return d
	}
	abs := path.ToSlash(m.resolver.Abs(path.ToSlash(file)))

	// Ignore first: it wins on conflict regardless of order
	if src, ok := firstMatch(m.ignore, rel, abs, escapes); ok {
		d.Ignore = src
		if entry, ok := firstMatch(m.entry, rel, abs, escapes); ok {
			d.Entry = entry
		}
		return d
	}

	if src, ok := firstMatch(m.entry, rel, abs, escapes); ok {
		d.Entry = src
		d.Matched = true
	}
	return d
}

// Rel returns file relative to the matcher's root in forward-slash form,
// and whether it lies outside the root.
func (m *Matcher) Rel(file string) (string, bool) {
	return m.resolver.Rel(path.ToSlash(file))
}

// Len returns the number of compiled entry and ignore globs.
func (m *Matcher) Len() (entry, ignore int) {
	return len(m.entry), len(m.ignore)
}

func firstMatch(patterns []compiled, rel, abs string, escapes bool) (string, bool) {
	for _, p := range patterns {
		candidate := rel
		switch {
		case p.Absolute:
			candidate = abs
		case escapes && !p.climbs:
			// "**" would otherwise swallow the leading ".." segments
			continue
		}
		// Patterns were validated in Build, so the error is always nil
		if ok, _ := doublestar.Match(p.Glob, candidate); ok {
			return p.source, true
		}
	}
	return "", false
}

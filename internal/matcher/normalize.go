package matcher

import (
	"strings"

	"github.com/Cyclone1070/ssrreload/internal/service/path"
)

// Pattern is a glob expression ready for compilation.
// Relative globs are matched against a candidate's root-relative path;
// absolute globs against its absolute forward-slash path.
type Pattern struct {
	Glob     string
	Absolute bool
}

// Normalize turns one user-supplied pattern into the glob(s) that represent
// it relative to root. It is a pure function of its inputs and does no I/O.
//
// Rules, first match wins:
//   - separators become "/"
//   - absolute paths inside root become root-relative
//   - absolute paths outside root stay absolute; a leading "/" form is also
//     tried as root-relative, because "/src/x" may mean either
//   - a leading "/" is stripped (project-root convention)
//   - a leading "./" is stripped
//   - anything else, including "../" forms, is kept as written
//
// A trailing "/" selects everything beneath that directory.
func Normalize(raw, root string) []Pattern {
	p := path.ToSlash(strings.TrimSpace(raw))

	if dir, ok := strings.CutSuffix(p, "/"); ok && dir != "" {
		p = dir + "/**"
	}

	if path.IsAbs(p) {
		resolver := path.NewResolver(root)
		rel, escapes := resolver.Rel(p)
		if !escapes {
			return []Pattern{{Glob: orAll(rel)}}
		}

		out := []Pattern{{Glob: path.ToSlash(resolver.Abs(p)), Absolute: true}}
		if strings.HasPrefix(p, "/") {
			out = append(out, Pattern{Glob: stripLeading(p)})
		}
		return out
	}

	return []Pattern{{Glob: stripLeading(p)}}
}

// stripLeading removes the root-relative marker from the front of p:
// exactly one "/", or any run of "./".
func stripLeading(p string) string {
	p = collapse(p)
	if rest, ok := strings.CutPrefix(p, "/"); ok {
		return orAll(rest)
	}
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return orAll(p)
}

// collapse removes duplicate slashes and "/./" markers without touching
// glob syntax or ".." segments.
func collapse(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	for strings.Contains(p, "/./") {
		p = strings.ReplaceAll(p, "/./", "/")
	}
	return p
}

// orAll maps a pattern that names the root itself to "everything".
func orAll(p string) string {
	if p == "" || p == "." {
		return "**"
	}
	return p
}

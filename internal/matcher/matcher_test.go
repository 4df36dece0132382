package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/proj"

func mustBuild(t *testing.T, entry, ignore []string) *Matcher {
	t.Helper()
	m, err := Build(entry, ignore, root)
	require.NoError(t, err)
	return m
}

func TestMatches_EquivalentPatternForms(t *testing.T) {
	file := "/proj/src/pages/slash-path.tsx"

	forms := map[string]string{
		"absolute":      "/proj/src/pages/slash-path.tsx",
		"root-relative": "/src/pages/slash-path.tsx",
		"dot-relative":  "./src/pages/slash-path.tsx",
		"plain":         "src/pages/slash-path.tsx",
		"windows":       `src\pages\slash-path.tsx`,
	}

	for name, pattern := range forms {
		t.Run(name, func(t *testing.T) {
			m := mustBuild(t, []string{pattern}, nil)
			assert.True(t, m.Matches(file))
			assert.False(t, m.Matches("/proj/src/pages/other.tsx"))
		})
	}
}

func TestMatches_IgnoreTakesPrecedence(t *testing.T) {
	file := "/proj/src/pages/ignored.tsx"

	tests := []struct {
		name   string
		entry  []string
		ignore []string
	}{
		{"glob entry, exact ignore", []string{"src/pages/**/*.tsx"}, []string{"src/pages/ignored.tsx"}},
		{"dot entry, slash ignore", []string{"./src/pages/ignored.tsx"}, []string{"/src/pages/ignored.tsx"}},
		{"slash entry, dot ignore", []string{"/src/pages/ignored.tsx"}, []string{"./src/pages/ignored.tsx"}},
		{"absolute ignore", []string{"src/**"}, []string{"/proj/src/pages/ignored.tsx"}},
		{"ignore listed first in a longer set", []string{"src/**", "src/pages/*.tsx"}, []string{"**/ignored.tsx", "nothing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustBuild(t, tt.entry, tt.ignore)
			d := m.Decide(file)
			assert.False(t, d.Matched)
			assert.NotEmpty(t, d.Ignore)
			assert.NotEmpty(t, d.Entry)
		})
	}
}

func TestMatches_DefaultEntryGlobs(t *testing.T) {
	m := mustBuild(t, []string{"src/**/*.ts", "src/**/*.tsx"}, nil)

	assert.True(t, m.Matches("/proj/src/main.ts"))
	assert.True(t, m.Matches("/proj/src/pages/deep/nested/page.tsx"))
	assert.False(t, m.Matches("/proj/src/styles/app.css"))
	assert.False(t, m.Matches("/proj/lib/util.ts"))
	assert.False(t, m.Matches("/proj/src"))
}

func TestMatches_GlobSemantics(t *testing.T) {
	tests := []struct {
		pattern string
		file    string
		want    bool
	}{
		{"src/*.ts", "/proj/src/a.ts", true},
		{"src/*.ts", "/proj/src/sub/a.ts", false},
		{"src/?.ts", "/proj/src/a.ts", true},
		{"src/?.ts", "/proj/src/ab.ts", false},
		{"src/[ab].ts", "/proj/src/b.ts", true},
		{"src/[ab].ts", "/proj/src/c.ts", false},
		{"src/{pages,routes}/*.tsx", "/proj/src/routes/x.tsx", true},
		{"src/**", "/proj/src/.env.local", true},
		{"src/*", "/proj/src/.hidden", true},
		{"**/*.tsx", "/proj/app.tsx", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.file, func(t *testing.T) {
			m := mustBuild(t, []string{tt.pattern}, nil)
			assert.Equal(t, tt.want, m.Matches(tt.file))
		})
	}
}

func TestMatches_OutsideRoot(t *testing.T) {
	t.Run("absolute pattern outside root", func(t *testing.T) {
		m := mustBuild(t, []string{"/shared/components/**/*.tsx"}, nil)
		assert.True(t, m.Matches("/shared/components/button/Button.tsx"))
		assert.False(t, m.Matches("/other/components/Button.tsx"))
	})

	t.Run("parent-relative pattern resolved against root", func(t *testing.T) {
		m := mustBuild(t, []string{"../shared/**/*.ts"}, nil)
		assert.True(t, m.Matches("/shared/lib/a.ts"))
		assert.False(t, m.Matches("/proj/shared/lib/a.ts"))
	})

	t.Run("relative pattern never matches outside root", func(t *testing.T) {
		m := mustBuild(t, []string{"**/*.ts"}, nil)
		assert.True(t, m.Matches("/proj/x.ts"))
		assert.False(t, m.Matches("/elsewhere/x.ts"))
	})

	t.Run("relative ignore does not reach files outside root", func(t *testing.T) {
		m := mustBuild(t, []string{"/shared/**/*.tsx"}, []string{"**/*.test.tsx"})
		assert.True(t, m.Matches("/shared/a.test.tsx"))
		assert.False(t, m.Matches("/proj/shared/a.test.tsx"))
	})

	t.Run("absolute ignore covers files outside root", func(t *testing.T) {
		m := mustBuild(t, []string{"/shared/**/*.tsx"}, []string{"/shared/**/*.test.tsx"})
		assert.False(t, m.Matches("/shared/a.test.tsx"))
		assert.True(t, m.Matches("/shared/a.tsx"))
	})
}

func TestMatches_CandidateNormalization(t *testing.T) {
	m := mustBuild(t, []string{"src/pages/*.tsx"}, nil)

	assert.True(t, m.Matches("/proj/src/pages/a.tsx"))
	assert.True(t, m.Matches("/proj//src/pages/./a.tsx"))
	assert.True(t, m.Matches("/proj/src/pages/a.tsx/"))
	assert.True(t, m.Matches("src/pages/a.tsx"), "relative candidates resolve against root")
	assert.True(t, m.Matches(`\proj\src\pages\a.tsx`))
	assert.False(t, m.Matches(""))
	assert.False(t, m.Matches("/proj"))
}

func TestMatches_NoEntryMatchesNothing(t *testing.T) {
	m := mustBuild(t, nil, nil)
	assert.False(t, m.Matches("/proj/src/a.ts"))

	entry, ignore := m.Len()
	assert.Equal(t, 0, entry)
	assert.Equal(t, 0, ignore)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("malformed entry glob", func(t *testing.T) {
		_, err := Build([]string{"src/[abc.ts"}, nil, root)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidPattern))

		var pErr *PatternError
		require.True(t, errors.As(err, &pErr))
		assert.Equal(t, "entry", pErr.Kind)
		assert.Equal(t, "src/[abc.ts", pErr.Pattern)
	})

	t.Run("malformed ignore glob", func(t *testing.T) {
		_, err := Build([]string{"src/**"}, []string{"src/{a,b"}, root)
		var pErr *PatternError
		require.True(t, errors.As(err, &pErr))
		assert.Equal(t, "ignore", pErr.Kind)
	})

	t.Run("empty pattern", func(t *testing.T) {
		_, err := Build([]string{"  "}, nil, root)
		assert.True(t, errors.Is(err, ErrEmptyPattern))
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := Build([]string{"src/**"}, nil, "")
		assert.Error(t, err)
	})
}

func TestBuild_CountsAlternatives(t *testing.T) {
	m := mustBuild(t, []string{"/src/a.ts", "src/b.ts"}, []string{"./c.ts"})
	entry, ignore := m.Len()
	assert.Equal(t, 3, entry, "a leading-slash pattern outside root compiles to two globs")
	assert.Equal(t, 1, ignore)
}

func TestRel(t *testing.T) {
	m := mustBuild(t, []string{"src/**"}, nil)

	rel, escapes := m.Rel("/proj/src/a.ts")
	assert.Equal(t, "src/a.ts", rel)
	assert.False(t, escapes)

	rel, escapes = m.Rel("/other/a.ts")
	assert.Equal(t, "../other/a.ts", rel)
	assert.True(t, escapes)
}

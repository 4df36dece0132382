package reload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Cyclone1070/ssrreload/internal/matcher"
	"github.com/Cyclone1070/ssrreload/internal/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/proj"

func newResolved(t *testing.T, entry, ignore []string) (*Coordinator, *mocks.MockBroadcaster) {
	t.Helper()
	m, err := matcher.Build(entry, ignore, root)
	require.NoError(t, err)

	b := mocks.NewMockBroadcaster()
	c := New(Config{Broadcaster: b})
	c.Resolve(m, nil)
	return c, b
}

func TestHandleFileChange_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		entry  []string
		ignore []string
		file   string
		want   Outcome
	}{
		{"leading slash entry", []string{"/src/pages/slash-path.tsx"}, nil, "/proj/src/pages/slash-path.tsx", Handled},
		{"dot-slash entry", []string{"./src/pages/dot-slash-path.tsx"}, nil, "/proj/src/pages/dot-slash-path.tsx", Handled},
		{"absolute entry", []string{"/proj/src/pages/test-absolute-file.tsx"}, nil, "/proj/src/pages/test-absolute-file.tsx", Handled},
		{"glob miss", []string{"src/pages/**/*.tsx"}, nil, "/proj/src/other/File.ts", NotHandled},
		{"ignored", []string{"src/pages/**/*.tsx"}, []string{"src/pages/ignored.tsx"}, "/proj/src/pages/ignored.tsx", NotHandled},
		{"dot entry vs slash ignore", []string{"./src/pages/ignored.tsx"}, []string{"/src/pages/ignored.tsx"}, "/proj/src/pages/ignored.tsx", NotHandled},
		{"default entry globs", []string{"src/**/*.ts", "src/**/*.tsx"}, nil, "/proj/src/pages/index.tsx", Handled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, b := newResolved(t, tt.entry, tt.ignore)

			got, err := c.HandleFileChange(context.Background(), ChangeEvent{Path: tt.file})

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.want == Handled {
				assert.Equal(t, 1, b.CallCount())
			} else {
				assert.Zero(t, b.CallCount())
			}
			assert.Equal(t, Idle, c.State())
		})
	}
}

func TestHandleFileChange_WaitsForMatcher(t *testing.T) {
	b := mocks.NewMockBroadcaster()
	c := New(Config{Broadcaster: b})

	done := make(chan Outcome, 1)
	go func() {
		out, _ := c.HandleFileChange(context.Background(), ChangeEvent{Path: "/proj/src/a.ts"})
		done <- out
	}()

	select {
	case <-done:
		t.Fatal("event handled before the matcher was resolved")
	case <-time.After(20 * time.Millisecond):
	}

	m, err := matcher.Build([]string{"src/**/*.ts"}, nil, root)
	require.NoError(t, err)
	c.Resolve(m, nil)

	select {
	case out := <-done:
		assert.Equal(t, Handled, out)
	case <-time.After(time.Second):
		t.Fatal("event never handled")
	}
}

func TestHandleFileChange_ContextCancelledWhileWaiting(t *testing.T) {
	c := New(Config{Broadcaster: mocks.NewMockBroadcaster()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := c.HandleFileChange(ctx, ChangeEvent{Path: "/proj/src/a.ts"})
	assert.Equal(t, NotHandled, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandleFileChange_ResolveError(t *testing.T) {
	c := New(Config{Broadcaster: mocks.NewMockBroadcaster()})
	buildErr := errors.New("bad pattern")
	c.Resolve(nil, buildErr)
	c.Resolve(nil, nil) // ignored

	out, err := c.HandleFileChange(context.Background(), ChangeEvent{Path: "/proj/src/a.ts"})
	assert.Equal(t, NotHandled, out)
	assert.ErrorIs(t, err, buildErr)
}

func TestHandleFileChange_BroadcastFailure(t *testing.T) {
	c, b := newResolved(t, []string{"src/**"}, nil)
	b.Err = errors.New("socket closed")

	out, err := c.HandleFileChange(context.Background(), ChangeEvent{Path: "/proj/src/a.ts"})

	assert.Equal(t, NotHandled, out)
	var bErr *BroadcastError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "/proj/src/a.ts", bErr.Path)
}

func TestHandleFileChange_NoBroadcaster(t *testing.T) {
	m, err := matcher.Build([]string{"src/**"}, nil, root)
	require.NoError(t, err)
	c := New(Config{})
	c.Resolve(m, nil)

	_, err = c.HandleFileChange(context.Background(), ChangeEvent{Path: "/proj/src/a.ts"})
	assert.ErrorIs(t, err, ErrNoBroadcaster)
}

func TestHandleFileChange_IgnoreFilterVetoes(t *testing.T) {
	m, err := matcher.Build([]string{"src/**"}, nil, root)
	require.NoError(t, err)

	b := mocks.NewMockBroadcaster()
	c := New(Config{Broadcaster: b, Ignore: mocks.NewMockIgnoreFilter("src/generated.ts")})
	c.Resolve(m, nil)

	out, err := c.HandleFileChange(context.Background(), ChangeEvent{Path: "/proj/src/generated.ts"})
	require.NoError(t, err)
	assert.Equal(t, NotHandled, out)

	out, err = c.HandleFileChange(context.Background(), ChangeEvent{Path: "/proj/src/page.ts"})
	require.NoError(t, err)
	assert.Equal(t, Handled, out)
	assert.Equal(t, 1, b.CallCount())
}

func TestHandleFileChange_EvaluatingDuringBroadcast(t *testing.T) {
	c, b := newResolved(t, []string{"src/**"}, nil)

	var during State
	b.OnReload = func() { during = c.State() }

	_, err := c.HandleFileChange(context.Background(), ChangeEvent{Path: "/proj/src/a.ts"})
	require.NoError(t, err)
	assert.Equal(t, Evaluating, during)
	assert.Equal(t, Idle, c.State())
}

func TestOutcomeAndStateStrings(t *testing.T) {
	assert.Equal(t, "handled", Handled.String())
	assert.Equal(t, "not-handled", NotHandled.String())
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "evaluating", Evaluating.String())
}

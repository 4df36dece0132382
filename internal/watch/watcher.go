// Package watch turns filesystem notifications under the project root into
// reload.ChangeEvents.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cyclone1070/ssrreload/internal/reload"
	pathutil "github.com/Cyclone1070/ssrreload/internal/service/path"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Handler receives change events one at a time, in arrival order.
type Handler func(context.Context, reload.ChangeEvent)

// DirFilter decides which directories are not watched.
type DirFilter interface {
	ShouldIgnore(relativePath string, isDir bool) bool
}

// skippedDirs are never watched, whatever the filter says.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Config configures a Watcher.
type Config struct {
	Root    string
	Handler Handler
	// Filter is optional.
	Filter DirFilter
	Logger zerolog.Logger
}

// Watcher recursively watches a directory tree.
type Watcher struct {
	resolver *pathutil.Resolver
	handler  Handler
	filter   DirFilter
	log      zerolog.Logger
	fsw      *fsnotify.Watcher

	// Owned by the goroutine that calls Run once New returns.
	dirs  map[string]bool
	files map[string]bool
}

// New creates a Watcher and registers every directory under cfg.Root.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		resolver: pathutil.NewResolver(cfg.Root),
		handler:  cfg.Handler,
		filter:   cfg.Filter,
		log:      cfg.Logger,
		fsw:      fsw,
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
	}
	if err := w.addTree(context.Background(), w.resolver.Root(), false); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching. Run also closes the watcher when it returns.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watched returns the directories currently registered.
func (w *Watcher) Watched() []string {
	return w.fsw.WatchList()
}

func (w *Watcher) skip(dir string) bool {
	if skippedDirs[filepath.Base(dir)] {
		return true
	}
	if w.filter == nil {
		return false
	}
	rel, escapes := w.resolver.Rel(dir)
	return !escapes && rel != "" && w.filter.ShouldIgnore(rel, true)
}

// addTree watches dir and every directory below it. With emit set, each
// regular file found is delivered as a change, so a directory moved into
// the tree reports its contents.
func (w *Watcher) addTree(ctx context.Context, dir string, emit bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			w.log.Debug().Err(err).Str("dir", p).Msg("skipping unreadable directory")
			return nil
		}
		if !d.IsDir() {
			if d.Type().IsRegular() {
				w.files[p] = true
				if emit {
					w.deliver(ctx, p, fsnotify.Create.String())
				}
			}
			return nil
		}
		if p != w.resolver.Root() && w.skip(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			w.log.Warn().Err(err).Str("dir", p).Msg("cannot watch directory")
			return nil
		}
		w.dirs[p] = true
		return nil
	})
}

// forgetTree drops dir and everything known below it, returning the files
// that were inside in lexical order.
func (w *Watcher) forgetTree(dir string) []string {
	prefix := dir + string(filepath.Separator)
	for d := range w.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
			// Deleted directories are unwatched already; moved ones are not.
			_ = w.fsw.Remove(d)
		}
	}

	var gone []string
	for f := range w.files {
		if strings.HasPrefix(f, prefix) {
			gone = append(gone, f)
			delete(w.files, f)
		}
	}
	sort.Strings(gone)
	return gone
}

// Run delivers events to the handler until ctx is cancelled, then releases
// the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	op := event.Op.String()

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.skip(event.Name) {
				return
			}
			if err := w.addTree(ctx, event.Name, true); err != nil {
				w.log.Warn().Err(err).Str("dir", event.Name).Msg("cannot watch new directory")
			}
			return
		}
		w.files[event.Name] = true

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if w.dirs[event.Name] {
			// The directory's entries are gone with it; report what it held.
			for _, f := range w.forgetTree(event.Name) {
				w.deliver(ctx, f, op)
			}
			return
		}
		delete(w.files, event.Name)

	case event.Has(fsnotify.Write):

	default:
		return
	}

	w.deliver(ctx, event.Name, op)
}

func (w *Watcher) deliver(ctx context.Context, file, op string) {
	w.log.Debug().Str("file", file).Str("op", op).Msg("file changed")
	if w.handler != nil {
		w.handler(ctx, reload.ChangeEvent{Path: file})
	}
}

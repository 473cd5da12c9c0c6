// Package discovery implements the filesystem-walker contract of the
// package-tree pipeline: a parallel recursive directory reader that yields a
// flat stream of directory/file events, filtered by the standard filters
// (hidden-entry exclusion, extension match) plus project .gitignore rules.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// EventKind distinguishes directory and file entries in the walk output.
type EventKind int

const (
	// Directory marks a directory entry, including the root itself.
	Directory EventKind = iota
	// File marks a regular file entry that passed all filters.
	File
)

// Event is one filesystem node discovered by Walk.
type Event struct {
	Kind EventKind
	Path string // absolute path
}

// Filter narrows the set of entries a Walker will report. A Filter returns
// false to exclude the entry from results; for directories, returning false
// also prunes the entire subtree.
type Filter func(path string, isDir bool) bool

// ExcludeHidden skips any entry whose base name starts with '.'.
func ExcludeHidden(path string, isDir bool) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}

// OnlyExtension keeps files whose extension equals ext (directories are
// always kept so the walk can continue beneath them); ext includes the dot,
// e.g. ".py".
func OnlyExtension(ext string) Filter {
	return func(path string, isDir bool) bool {
		if isDir {
			return true
		}
		return filepath.Ext(path) == ext
	}
}

// Walker reads a directory tree in parallel, applying a composable chain of
// filters to directories and files alike.
type Walker struct {
	filters   []Filter
	gitIgnore *ignore.GitIgnore
	rootDir   string
}

// New builds a Walker with the given filters applied in order; an entry must
// pass every filter to be included.
func New(filters ...Filter) *Walker {
	return &Walker{filters: filters}
}

// WithGitignore loads rootDir/.gitignore, if present, and excludes any entry
// it matches. It is a no-op when no .gitignore exists.
func (w *Walker) WithGitignore(rootDir string) (*Walker, error) {
	path := filepath.Join(rootDir, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return w, nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, err
	}
	w.gitIgnore = gi
	w.rootDir = rootDir
	return w, nil
}

func (w *Walker) passes(path string, isDir bool) bool {
	for _, f := range w.filters {
		if !f(path, isDir) {
			return false
		}
	}
	if w.gitIgnore != nil {
		rel, err := filepath.Rel(w.rootDir, path)
		if err == nil && w.gitIgnore.MatchesPath(rel) {
			return false
		}
	}
	return true
}

// Walk reads the tree rooted at dir, fanning a goroutine out per directory,
// and returns the discovered events sorted by path for deterministic output.
// A failure reading any entry aborts the whole traversal and is surfaced
// verbatim.
//
// The root itself is always reported as a Directory event, even if it would
// otherwise fail ExcludeHidden (the caller controls what dir to pass).
func (w *Walker) Walk(dir string) ([]Event, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	events := []Event{{Kind: Directory, Path: abs}}

	g := new(errgroup.Group)
	w.walkDir(g, abs, &mu, &events)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events, nil
}

func (w *Walker) walkDir(g *errgroup.Group, dir string, mu *sync.Mutex, events *[]Event) {
	g.Go(func() error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		var childGroup errgroup.Group
		for _, entry := range entries {
			entry := entry
			childPath := filepath.Join(dir, entry.Name())
			isDir := entry.IsDir()

			if entry.Type()&os.ModeSymlink != 0 {
				info, statErr := os.Stat(childPath)
				if statErr != nil {
					continue
				}
				isDir = info.IsDir()
			}

			if !w.passes(childPath, isDir) {
				continue
			}

			if isDir {
				mu.Lock()
				*events = append(*events, Event{Kind: Directory, Path: childPath})
				mu.Unlock()
				w.walkDir(&childGroup, childPath, mu, events)
				continue
			}

			mu.Lock()
			*events = append(*events, Event{Kind: File, Path: childPath})
			mu.Unlock()
		}
		return childGroup.Wait()
	})
}

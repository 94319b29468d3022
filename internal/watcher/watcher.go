// Package watcher rebuilds the site when source files change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/minio/crc64nvme"
	"github.com/rs/zerolog/log"
)

// DefaultDelay groups bursts of events, such as an editor saving several files.
const DefaultDelay = 200 * time.Millisecond

// RebuildFunc is called with the paths that changed since the last call.
type RebuildFunc func(ctx context.Context, changed []string) error

// Watcher watches a project tree and calls a RebuildFunc for changed content.
type Watcher struct {
	root    string
	ignore  []string
	delay   time.Duration
	rebuild RebuildFunc
	fsw     *fsnotify.Watcher
	sums    map[string]uint64
}

// New watches every directory under root except node_modules, dot directories
// and the ignored absolute paths. Checksums of the current files are recorded
// so that events which leave content unchanged do not trigger a rebuild.
func New(root string, ignore []string, delay time.Duration, rebuild RebuildFunc) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if delay <= 0 {
		delay = DefaultDelay
	}

	w := &Watcher{
		root:    absRoot,
		ignore:  ignore,
		delay:   delay,
		rebuild: rebuild,
		fsw:     fsw,
		sums:    make(map[string]uint64),
	}

	if err := w.addRecursive(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// Run processes events until ctx is done. Rebuild errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]struct{})
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("File watcher error")

		case <-timerC:
			timerC = nil
			changed := w.changed(pending)
			pending = make(map[string]struct{})
			if len(changed) == 0 {
				continue
			}

			log.Info().Strs("changed", changed).Msg("Rebuilding")
			if err := w.rebuild(ctx, changed); err != nil {
				log.Error().Err(err).Msg("Rebuild failed")
			}
		}
	}
}

// handle reports whether the event is relevant, adding new directories to
// the watch set.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if w.ignored(event.Name) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				log.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch directory")
			}
		}
	}

	return true
}

// changed returns the pending paths whose content differs from the last
// recorded checksum, in lexical order. Removed paths and directories always count.
func (w *Watcher) changed(pending map[string]struct{}) []string {
	var changed []string
	for path := range pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.sums, path)
			changed = append(changed, path)
			continue
		}
		if info.IsDir() {
			changed = append(changed, path)
			continue
		}

		sum, err := checksum(path)
		if err != nil {
			changed = append(changed, path)
			continue
		}
		if prev, ok := w.sums[path]; ok && prev == sum {
			continue
		}
		w.sums[path] = sum
		changed = append(changed, path)
	}
	sort.Strings(changed)
	return changed
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		if path != w.root && w.ignored(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			if sum, err := checksum(path); err == nil {
				w.sums[path] = sum
			}
			return nil
		}

		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if seg == "node_modules" || strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func checksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc64nvme.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

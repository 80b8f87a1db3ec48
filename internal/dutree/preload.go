package dutree

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// walkTally accumulates per-directory file bytes from concurrent fastwalk callbacks.
type walkTally struct {
	mu     sync.Mutex
	direct map[string]int64
	failed map[string]bool
}

func (t *walkTally) dir(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.direct[path]; !ok {
		t.direct[path] = 0
	}
}

func (t *walkTally) file(dir string, size int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.direct[dir] += size
}

func (t *walkTally) fail(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failed[path] = true
}

// totals folds direct file bytes into every ancestor below root.
// A directory that could not be listed totals zero and adds nothing to its parent.
func (t *walkTally) totals(root string) map[string]int64 {
	totals := make(map[string]int64, len(t.direct))
	dirs := make([]string, 0, len(t.direct))

	for dir, size := range t.direct {
		if t.failed[dir] {
			size = 0
		}

		totals[dir] = size
		dirs = append(dirs, dir)
	}

	// A cleaned child path is always longer than its parent's, so longest first is leaf first.
	slices.SortFunc(dirs, func(a, b string) int {
		return len(b) - len(a)
	})

	for _, dir := range dirs {
		if dir == root || t.failed[dir] {
			continue
		}

		parent := filepath.Dir(dir)
		if t.failed[parent] {
			continue
		}

		if _, ok := totals[parent]; ok {
			totals[parent] += totals[dir]
		}
	}

	return totals
}

// Preload measures every directory beneath root with one parallel walk on the host
// filesystem and stores the results, leaving already cached entries untouched.
//
// Sizes match what SizeOf computes: symlinks are not followed, entries whose metadata
// cannot be read count as zero, and directories that cannot be listed measure zero
// and are recorded as diagnostics.
//
//nolint:varnamelen // d is standard for DirEntry
func (c *SizeCache) Preload(ctx context.Context, root string, workers int) error {
	root = filepath.Clean(root)

	tally := &walkTally{
		direct: make(map[string]int64),
		failed: make(map[string]bool),
	}

	conf := &fastwalk.Config{
		Follow:     false, // Don't follow symlinks
		NumWorkers: workers,
	}

	walkErr := fastwalk.Walk(conf, walkRoot(root), func(path string, d fs.DirEntry, err error) error {
		path = filepath.Clean(path)

		if err != nil {
			if d != nil && d.IsDir() {
				c.report(path, err)
				tally.fail(path)

				return nil
			}

			c.skip(path, err)

			return nil // Silently skip errors
		}

		// Check cancellation periodically
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch {
		case d.IsDir():
			c.dirs.Add(1)
			tally.dir(path)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				c.skip(path, err)

				return nil //nolint:nilerr // Intentionally skip errors during walk
			}

			c.files.Add(1)
			c.bytes.Add(info.Size())
			tally.file(filepath.Dir(path), info.Size())
		}

		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	for dir, size := range tally.totals(root) {
		c.store(dir, size)
	}

	return nil
}

// walkRoot returns the path handed to fastwalk. A trailing separator makes a
// symlinked root resolve to its target directory.
func walkRoot(root string) string {
	info, err := os.Lstat(root)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return root
	}

	if strings.HasSuffix(root, string(filepath.Separator)) {
		return root
	}

	return root + string(filepath.Separator)
}

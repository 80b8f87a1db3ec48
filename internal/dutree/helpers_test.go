package dutree

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// makeTree creates a directory tree under a temporary root and returns the root.
// Layout keys are slash-separated relative paths mapped to file sizes; a key ending
// in "/" creates an empty directory instead.
func makeTree(t *testing.T, layout map[string]int) string {
	t.Helper()

	root := t.TempDir()

	for rel, size := range layout {
		path := filepath.Join(root, filepath.FromSlash(rel))

		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("creating directory %s: %v", path, err)
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating directory for %s: %v", path, err)
		}

		if err := os.WriteFile(path, bytes.Repeat([]byte{'x'}, size), 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}

	return root
}

// countingFS records ReadDir calls and injects failures on top of the host filesystem.
type countingFS struct {
	FS

	mu       sync.Mutex
	reads    map[string]int
	failList map[string]error
	failInfo map[string]error
}

func newCountingFS() *countingFS {
	return &countingFS{
		FS:       OS,
		reads:    make(map[string]int),
		failList: make(map[string]error),
		failInfo: make(map[string]error),
	}
}

func (c *countingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	c.mu.Lock()
	c.reads[name]++
	listErr := c.failList[name]
	c.mu.Unlock()

	if listErr != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: listErr}
	}

	entries, err := c.FS.ReadDir(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range entries {
		if infoErr, ok := c.failInfo[filepath.Join(name, entry.Name())]; ok {
			entries[i] = failingEntry{DirEntry: entry, err: infoErr}
		}
	}

	return entries, nil
}

// readsOf returns how often path was listed.
func (c *countingFS) readsOf(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reads[path]
}

// totalReads returns the number of ReadDir calls made.
func (c *countingFS) totalReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.reads {
		total += n
	}

	return total
}

// failingEntry is a directory entry whose metadata cannot be read.
type failingEntry struct {
	fs.DirEntry

	err error
}

func (e failingEntry) Info() (fs.FileInfo, error) {
	return nil, e.err
}

// depthOf returns the deepest node depth in the tree.
func depthOf(n *Node) int {
	deepest := n.Depth

	n.Walk(func(node *Node) {
		deepest = max(deepest, node.Depth)
	})

	return deepest
}

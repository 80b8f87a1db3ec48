package dutree

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/mordilloSan/go_logger/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// shardCount is the number of independently locked partitions of the cache map.
const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	sizes map[string]int64
}

// SizeCache memoizes the apparent size of directories for the duration of one scan.
//
// Every directory is listed at most once: concurrent requests for the same path share
// one computation, and later requests are answered from the map without touching the
// filesystem. Entries are never replaced once stored.
type SizeCache struct {
	fsys   FS
	shards [shardCount]shard
	group  singleflight.Group
	sem    chan struct{}
	diags  *diagnostics

	files  atomic.Int64
	dirs   atomic.Int64
	bytes  atomic.Int64
	errors atomic.Int64
}

// NewSizeCache creates an empty cache reading from fsys.
// Up to workers directory listings run concurrently; workers <= 1 measures sequentially.
func NewSizeCache(fsys FS, workers int) *SizeCache {
	if fsys == nil {
		fsys = OS
	}

	c := &SizeCache{
		fsys:  fsys,
		diags: newDiagnostics(),
	}

	for i := range c.shards {
		c.shards[i].sizes = make(map[string]int64)
	}

	if workers > 1 {
		c.sem = make(chan struct{}, workers)
	}

	return c
}

// SizeOf returns the total size of all regular files beneath path.
//
// A directory that cannot be listed measures as zero and is recorded as a diagnostic.
// The only error returned is the context's, in which case nothing is cached for path.
func (c *SizeCache) SizeOf(ctx context.Context, path string) (int64, error) {
	if size, ok := c.Lookup(path); ok {
		return size, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		// Another caller may have finished between the lookup and Do.
		if size, ok := c.Lookup(path); ok {
			return size, nil
		}

		size, err := c.measure(ctx, path)
		if err != nil {
			return int64(0), err
		}

		return c.store(path, size), nil
	})
	if err != nil {
		return 0, err
	}

	return v.(int64), nil //nolint:forcetypeassert // Do only returns int64
}

// Lookup returns the cached size of path without filesystem access.
func (c *SizeCache) Lookup(path string) (int64, bool) {
	s := c.shard(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	size, ok := s.sizes[path]

	return size, ok
}

// Len returns the number of cached directories.
func (c *SizeCache) Len() int {
	n := 0

	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n += len(s.sizes)
		s.mu.RUnlock()
	}

	return n
}

// Diagnostics returns the listing failures seen so far, sorted by path.
func (c *SizeCache) Diagnostics() []Diagnostic {
	return c.diags.list()
}

// store records size for path unless already present and returns the cached value.
func (c *SizeCache) store(path string, size int64) int64 {
	s := c.shard(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sizes[path]; ok {
		return existing
	}

	s.sizes[path] = size

	return size
}

func (c *SizeCache) shard(path string) *shard {
	return &c.shards[xxhash.Sum64String(path)%shardCount]
}

// report records a directory-level failure.
func (c *SizeCache) report(path string, err error) {
	logger.Debugf("cannot list %s: %v", path, err)
	c.diags.add(path, err)
}

// skip records an entry whose metadata could not be read.
func (c *SizeCache) skip(path string, err error) {
	logger.Debugf("skipping %s: %v", path, err)
	c.errors.Add(1)
}

// measure lists path once and sums its files and subdirectories.
func (c *SizeCache) measure(ctx context.Context, path string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := c.fsys.ReadDir(path)
	if err != nil {
		c.report(path, err)

		return 0, nil
	}

	c.dirs.Add(1)

	var (
		total   int64
		subdirs []string
	)

	for _, entry := range entries {
		switch {
		case isDir(entry):
			subdirs = append(subdirs, filepath.Join(path, entry.Name()))
		case isRegular(entry):
			info, err := entry.Info()
			if err != nil {
				c.skip(filepath.Join(path, entry.Name()), err)

				continue
			}

			total += info.Size()

			c.files.Add(1)
			c.bytes.Add(info.Size())
		}
	}

	sizes, err := c.sizeAll(ctx, subdirs)
	if err != nil {
		return 0, err
	}

	for _, size := range sizes {
		total += size
	}

	return total, nil
}

// sizeAll measures sibling directories, handing them to spare workers when available
// and measuring inline otherwise. Inline fallback keeps nested calls from waiting on
// slots held by their own ancestors.
func (c *SizeCache) sizeAll(ctx context.Context, paths []string) ([]int64, error) {
	sizes := make([]int64, len(paths))

	g, gctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		if c.acquire() {
			g.Go(func() error {
				defer c.release()

				size, err := c.SizeOf(gctx, path)
				sizes[i] = size

				return err
			})

			continue
		}

		size, err := c.SizeOf(gctx, path)
		if err != nil {
			_ = g.Wait()

			return nil, err
		}

		sizes[i] = size
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return sizes, nil
}

func (c *SizeCache) acquire() bool {
	if c.sem == nil {
		return false
	}

	select {
	case c.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (c *SizeCache) release() {
	<-c.sem
}

// progress returns the number of files and bytes measured so far.
func (c *SizeCache) progress() (int64, int64) {
	return c.files.Load(), c.bytes.Load()
}

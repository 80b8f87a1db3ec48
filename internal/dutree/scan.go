package dutree

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/mordilloSan/go_logger/logger"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// startProgressReporter invokes hook(files, bytes) on each tick until ctx is done.
//
//nolint:varnamelen // c is idiomatic for cache
func startProgressReporter(ctx context.Context, c *SizeCache, hook func(int64, int64), interval time.Duration) {
	if hook == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.progress())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// validate applies defaults to opt and rejects values no scan can satisfy.
func (opt *Options) validate() error {
	if opt.Path == "" {
		opt.Path = "."
	}

	// filepath.Clean handles both separators and converts to native format
	opt.Path = filepath.Clean(opt.Path)

	if opt.Strategy == "" {
		opt.Strategy = StrategyRecursive
	}

	if opt.FS == nil {
		opt.FS = OS
	}

	switch {
	case opt.Depth < 1:
		return fmt.Errorf("%w: depth must be at least 1, got %d", ErrInvalidOptions, opt.Depth)
	case opt.TopN < 1:
		return fmt.Errorf("%w: top must be at least 1, got %d", ErrInvalidOptions, opt.TopN)
	case !slices.Contains(Strategies(), opt.Strategy):
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidOptions, opt.Strategy)
	case opt.Strategy == StrategyWalk && opt.FS != OS:
		return fmt.Errorf("%w: strategy %q requires the host filesystem", ErrInvalidOptions, opt.Strategy)
	}

	return nil
}

// Scan measures the directory tree at opt.Path and returns it ranked by size,
// opt.Depth levels deep with at most opt.TopN children per node.
//
// A root that does not exist or is not a directory fails the scan. Everything below
// the root degrades the result instead: unreadable entries count as zero and
// directories that cannot be listed are returned as diagnostics.
//
// The scan can be cancelled via ctx. Progress updates are sent to progressHook if provided.
func Scan(ctx context.Context, opt Options, progressHook func(int64, int64)) (*Result, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}

	// validate path exists and is a directory
	if info, err := opt.FS.Stat(opt.Path); err != nil {
		return nil, fmt.Errorf("accessing path %q: %w", opt.Path, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path %q: %w", opt.Path, ErrNotDirectory)
	}

	cache := NewSizeCache(opt.FS, opt.Workers)

	// Create child context to ensure progress reporter cleanup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startProgressReporter(ctx, cache, progressHook, opt.ProgressInterval)

	start := time.Now()

	logger.Debugf("scanning %s (depth=%d top=%d workers=%d strategy=%s)",
		opt.Path, opt.Depth, opt.TopN, opt.Workers, opt.Strategy)

	if opt.Strategy == StrategyWalk {
		if err := cache.Preload(ctx, opt.Path, opt.Workers); err != nil {
			return nil, fmt.Errorf("walking %q: %w", opt.Path, err)
		}
	}

	root, err := NewBuilder(cache).Build(ctx, opt.Path, 0, opt.Depth, opt.TopN)
	if err != nil {
		return nil, fmt.Errorf("building tree for %q: %w", opt.Path, err)
	}

	result := &Result{
		Root:        root,
		Diagnostics: cache.Diagnostics(),
		FileCount:   cache.files.Load(),
		DirCount:    cache.dirs.Load(),
		ErrorCount:  cache.errors.Load(),
		Elapsed:     time.Since(start),
		TopN:        opt.TopN,
		Depth:       opt.Depth,
	}

	logger.Debugf("scanned %s: %d directories, %d files, %d diagnostics in %v",
		opt.Path, result.DirCount, result.FileCount, len(result.Diagnostics), result.Elapsed)

	return result, nil
}

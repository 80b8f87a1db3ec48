package dutree

import (
	"cmp"
	"context"
	"path/filepath"
	"slices"
)

// Builder produces ranked trees from sizes held in a SizeCache.
type Builder struct {
	cache *SizeCache
}

// NewBuilder creates a Builder drawing sizes from cache.
func NewBuilder(cache *SizeCache) *Builder {
	return &Builder{cache: cache}
}

// candidate is a subdirectory competing for a place among its parent's children.
type candidate struct {
	path string
	size int64
}

// Build returns the node for path, which sits at currentDepth, expanded down to maxDepth
// with at most topN children per node.
//
// Children are listed only while currentDepth < maxDepth, so with maxDepth 1 the root
// gets children and they get none. The only error returned is the context's.
func (b *Builder) Build(ctx context.Context, path string, currentDepth, maxDepth, topN int) (*Node, error) {
	size, err := b.cache.SizeOf(ctx, path)
	if err != nil {
		return nil, err
	}

	node := &Node{
		Name:      label(path),
		Path:      path,
		Size:      size,
		HumanSize: FormatSize(size),
		Depth:     currentDepth,
	}

	if currentDepth >= maxDepth || topN <= 0 {
		return node, nil
	}

	candidates, err := b.subdirectories(ctx, path)
	if err != nil {
		return nil, err
	}

	// Stable, so equal sizes keep the name order ReadDir returned.
	slices.SortStableFunc(candidates, func(x, y candidate) int {
		return cmp.Compare(y.size, x.size)
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	node.Children = make([]*Node, 0, len(candidates))

	for _, cand := range candidates {
		child, err := b.Build(ctx, cand.path, currentDepth+1, maxDepth, topN)
		if err != nil {
			return nil, err
		}

		node.Children = append(node.Children, child)
	}

	return node, nil
}

// subdirectories lists the directories directly inside path with their sizes.
// A listing failure is reported and yields no candidates.
func (b *Builder) subdirectories(ctx context.Context, path string) ([]candidate, error) {
	entries, err := b.cache.fsys.ReadDir(path)
	if err != nil {
		b.cache.report(path, err)

		return nil, nil
	}

	candidates := make([]candidate, 0, len(entries))

	for _, entry := range entries {
		if !isDir(entry) {
			continue
		}

		sub := filepath.Join(path, entry.Name())

		size, err := b.cache.SizeOf(ctx, sub)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, candidate{path: sub, size: size})
	}

	return candidates, nil
}

// label returns the display name of a directory: its final path component,
// or the path itself when it has none, as for "/" or ".".
func label(path string) string {
	name := filepath.Base(path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return path
	}

	return name
}

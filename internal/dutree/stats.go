package dutree

import (
	"encoding/json"
	"errors"
	"io/fs"
	"slices"
	"strings"
	"sync"
	"time"
)

// Strategy names how directory sizes are computed.
type Strategy string

const (
	// StrategyRecursive lists directories on demand, in parallel, as sizes are requested.
	StrategyRecursive Strategy = "recursive"
	// StrategyWalk preloads every directory size with a single parallel walk.
	StrategyWalk Strategy = "walk"
)

// Strategies lists the supported strategies.
func Strategies() []Strategy {
	return []Strategy{StrategyRecursive, StrategyWalk}
}

// Node represents one directory in the ranked tree.
type Node struct {
	// Name is the final path component, or the full path for a filesystem root.
	Name string `json:"name"`
	// Path is the full path of the directory.
	Path string `json:"path"`
	// Size is the apparent size in bytes of everything beneath the directory.
	Size int64 `json:"size"`
	// HumanSize is Size rendered by FormatSize.
	HumanSize string `json:"human_size"`
	// Depth is the distance from the scan root, which is at depth 0.
	Depth int `json:"depth"`
	// Children holds the largest subdirectories, largest first.
	Children []*Node `json:"children,omitempty"`
}

// Walk calls fn for the node and all its descendants, depth first, in display order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)

	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Diagnostic is a non-fatal condition encountered during a scan.
type Diagnostic struct {
	// Path is the directory that caused the diagnostic.
	Path string
	// Err is the underlying failure.
	Err error
}

// Reason returns the human-readable cause, without repeating the path.
func (d Diagnostic) Reason() string {
	if d.Err == nil {
		return "unknown error"
	}

	var pathErr *fs.PathError
	if errors.As(d.Err, &pathErr) && pathErr.Path == d.Path {
		return pathErr.Op + ": " + pathErr.Err.Error()
	}

	return d.Err.Error()
}

func (d Diagnostic) String() string {
	return d.Path + ": " + d.Reason()
}

// MarshalJSON encodes the diagnostic as {"path": ..., "reason": ...}.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path   string `json:"path"`
		Reason string `json:"reason"`
	}{Path: d.Path, Reason: d.Reason()})
}

// Result holds the ranked tree and everything observed while building it.
type Result struct {
	// Root is the scanned directory.
	Root *Node `json:"root"`
	// Diagnostics lists directories that could not be listed, sorted by path.
	Diagnostics []Diagnostic `json:"diagnostics"`
	// FileCount is the number of regular files measured.
	FileCount int64 `json:"file_count"`
	// DirCount is the number of directories listed.
	DirCount int64 `json:"dir_count"`
	// ErrorCount is the number of entries whose metadata could not be read.
	ErrorCount int64 `json:"error_count"`
	// Elapsed is the total time taken for the scan.
	Elapsed time.Duration `json:"elapsed"`
	// TopN is the branching factor used.
	TopN int `json:"top_n"`
	// Depth is the depth limit used.
	Depth int `json:"depth"`
}

// Options configures a scan.
type Options struct {
	// Path is the root directory to scan.
	Path string
	// Depth is the maximum depth of the tree; the root is at depth 0.
	Depth int
	// TopN is the number of children kept at each level.
	TopN int
	// Workers bounds concurrent directory listings (<= 1 scans sequentially).
	Workers int
	// Strategy selects how sizes are computed (empty = recursive).
	Strategy Strategy
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// FS is the filesystem to scan (nil = host filesystem).
	FS FS
}

var (
	// ErrInvalidOptions is returned for a depth or top-N below one, or an unknown strategy.
	ErrInvalidOptions = errors.New("invalid scan options")
	// ErrNotDirectory is returned when the scan root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// diagnostics collects directory-level failures from concurrent listings.
// Only the first failure per path is kept.
type diagnostics struct {
	mu    sync.Mutex
	items map[string]Diagnostic
}

func newDiagnostics() *diagnostics {
	return &diagnostics{items: make(map[string]Diagnostic)}
}

func (d *diagnostics) add(path string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.items[path]; ok {
		return
	}

	d.items[path] = Diagnostic{Path: path, Err: err}
}

// list returns the collected diagnostics sorted by path.
func (d *diagnostics) list() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Diagnostic, 0, len(d.items))
	for _, diag := range d.items {
		out = append(out, diag)
	}

	slices.SortFunc(out, func(a, b Diagnostic) int {
		return strings.Compare(a.Path, b.Path)
	})

	return out
}

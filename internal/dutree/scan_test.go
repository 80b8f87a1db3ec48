package dutree

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func TestScanEndToEnd(t *testing.T) {
	root := makeTree(t, map[string]int{
		"f1":     500,
		"a/file": 2000,
		"b/file": 100,
	})

	for _, strategy := range Strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			result, err := Scan(context.Background(), Options{
				Path:     root,
				Depth:    1,
				TopN:     1,
				Workers:  4,
				Strategy: strategy,
			}, nil)
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}

			node := result.Root
			if node.Size != 2600 {
				t.Errorf("expected root size 2600, got %d", node.Size)
			}

			if node.Depth != 0 || node.Path != root || node.Name != filepath.Base(root) {
				t.Errorf("unexpected root node %+v", node)
			}

			if len(node.Children) != 1 {
				t.Fatalf("expected exactly one child, got %v", childNames(node))
			}

			child := node.Children[0]
			if child.Path != filepath.Join(root, "a") || child.Size != 2000 || child.HumanSize != "2.0 KB" {
				t.Errorf("unexpected child %+v", child)
			}

			if len(child.Children) != 0 {
				t.Errorf("expected no grandchildren, got %v", childNames(child))
			}

			if result.FileCount != 3 {
				t.Errorf("expected 3 files, got %d", result.FileCount)
			}

			if len(result.Diagnostics) != 0 {
				t.Errorf("expected no diagnostics, got %v", result.Diagnostics)
			}
		})
	}
}

func TestScanEmptyRoot(t *testing.T) {
	root := t.TempDir()

	result, err := Scan(context.Background(), Options{Path: root, Depth: 3, TopN: 3}, nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.Root.Size != 0 || result.Root.HumanSize != "0.0 B" || len(result.Root.Children) != 0 {
		t.Errorf("expected a single empty node, got %+v", result.Root)
	}
}

func TestScanInvalidRoot(t *testing.T) {
	root := makeTree(t, map[string]int{"file": 10})

	tests := []struct {
		name string
		opt  Options
		want error
	}{
		{
			name: "missing",
			opt:  Options{Path: filepath.Join(root, "missing"), Depth: 1, TopN: 1},
			want: fs.ErrNotExist,
		},
		{
			name: "file",
			opt:  Options{Path: filepath.Join(root, "file"), Depth: 1, TopN: 1},
			want: ErrNotDirectory,
		},
		{
			name: "zero depth",
			opt:  Options{Path: root, Depth: 0, TopN: 1},
			want: ErrInvalidOptions,
		},
		{
			name: "zero top",
			opt:  Options{Path: root, Depth: 1, TopN: 0},
			want: ErrInvalidOptions,
		},
		{
			name: "unknown strategy",
			opt:  Options{Path: root, Depth: 1, TopN: 1, Strategy: "magic"},
			want: ErrInvalidOptions,
		},
		{
			name: "walk on custom filesystem",
			opt:  Options{Path: root, Depth: 1, TopN: 1, Strategy: StrategyWalk, FS: newCountingFS()},
			want: ErrInvalidOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Scan(context.Background(), tt.opt, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			if result != nil {
				t.Errorf("expected no result, got %+v", result)
			}
		})
	}
}

func TestScanPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := makeTree(t, map[string]int{
		"open/file":   100,
		"locked/file": 5000,
		"top":         1,
	})

	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	for _, strategy := range Strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			result, err := Scan(context.Background(), Options{
				Path:     root,
				Depth:    2,
				TopN:     5,
				Workers:  2,
				Strategy: strategy,
			}, nil)
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}

			if result.Root.Size != 101 {
				t.Errorf("expected root size 101, got %d", result.Root.Size)
			}

			var found bool

			for _, diag := range result.Diagnostics {
				if diag.Path == locked && errors.Is(diag.Err, fs.ErrPermission) {
					found = true
				}
			}

			if !found {
				t.Errorf("expected a permission diagnostic for %s, got %v", locked, result.Diagnostics)
			}
		})
	}
}

func TestScanStrategiesAgree(t *testing.T) {
	root := makeTree(t, map[string]int{
		"src/main.go":             1200,
		"src/pkg/a/a.go":          300,
		"src/pkg/b/b.go":          900,
		"src/pkg/b/testdata/blob": 4096,
		"docs/readme.md":          50,
		"docs/img/logo.png":       20000,
		"build/out/bin/app":       70000,
		"build/out/obj/x.o":       700,
		"build/cache/":            0,
		"empty/":                  0,
		"notes.txt":               12,
	})

	if runtime.GOOS != "windows" {
		if err := os.Symlink(root, filepath.Join(root, "src", "loop")); err != nil {
			t.Fatalf("creating symlink: %v", err)
		}
	}

	scan := func(strategy Strategy) *Result {
		t.Helper()

		result, err := Scan(context.Background(), Options{
			Path:     root,
			Depth:    4,
			TopN:     2,
			Workers:  8,
			Strategy: strategy,
		}, nil)
		if err != nil {
			t.Fatalf("%s: Scan failed: %v", strategy, err)
		}

		return result
	}

	recursive := scan(StrategyRecursive)
	walk := scan(StrategyWalk)

	if !reflect.DeepEqual(recursive.Root, walk.Root) {
		t.Errorf("strategies disagree:\nrecursive: %+v\nwalk:      %+v", recursive.Root, walk.Root)
	}

	if recursive.Root.Size != 97258 {
		t.Errorf("expected root size 97258, got %d", recursive.Root.Size)
	}

	if recursive.FileCount != walk.FileCount {
		t.Errorf("file counts disagree: %d vs %d", recursive.FileCount, walk.FileCount)
	}
}

func TestScanCancelled(t *testing.T) {
	root := makeTree(t, map[string]int{"a/b": 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, strategy := range Strategies() {
		_, err := Scan(ctx, Options{Path: root, Depth: 2, TopN: 2, Strategy: strategy}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", strategy, err)
		}
	}
}

func TestDiagnosticReason(t *testing.T) {
	tests := []struct {
		name string
		diag Diagnostic
		want string
	}{
		{
			name: "path error for same path",
			diag: Diagnostic{Path: "/x", Err: &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}},
			want: "open: permission denied",
		},
		{
			name: "path error for other path",
			diag: Diagnostic{Path: "/x", Err: &fs.PathError{Op: "open", Path: "/y", Err: fs.ErrPermission}},
			want: "open /y: permission denied",
		},
		{
			name: "plain error",
			diag: Diagnostic{Path: "/x", Err: errors.New("boom")},
			want: "boom",
		},
		{
			name: "no error",
			diag: Diagnostic{Path: "/x"},
			want: "unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.diag.Reason(); got != tt.want {
				t.Errorf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/mordilloSan/go_logger/logger"

	"github.com/idelchi/dutree/internal/dutree"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

func run(ctx context.Context, opts settings, stdout, stderr io.Writer) error {
	enableProgress := opts.output != "json" &&
		!opts.debug &&
		isTerminal(stderr)

	if ctx == nil {
		ctx = context.Background()
	}

	// Simple progress callback that prints directly to stderr
	var progressHook func(files, bytes int64)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(files, bytes int64) {
			msg := fmt.Sprintf("Scanning… %s files, %s",
				humanize.Comma(files), humanize.IBytes(uint64(bytes))) //nolint:gosec // Bytes is always positive
			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		}
	}

	result, err := dutree.Scan(ctx, opts.scan, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	logger.Debugf("scan of %s finished with %d diagnostics", result.Root.Path, len(result.Diagnostics))

	switch opts.output {
	case "json":
		return PrintJSON(result, stdout)
	case "tree":
		if err := PrintTree(result, stdout, opts.minSize); err != nil {
			return err
		}
	case "list":
		if err := PrintList(result, stdout, opts.minSize); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format: %s", opts.output)
	}

	return PrintDiagnostics(result, stderr)
}

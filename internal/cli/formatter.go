package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/dutree/internal/dutree"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// PrintJSON outputs the scan result in JSON format.
func PrintJSON(result *dutree.Result, writer io.Writer) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

func percent(size, total int64) string {
	pct := 0.0
	if total > 0 {
		pct = 100.0 * float64(size) / float64(total)
	}

	return fmt.Sprintf("%.1f%%", pct)
}

// visible returns the nodes of at least minSize bytes.
func visible(nodes []*dutree.Node, minSize int64) []*dutree.Node {
	out := make([]*dutree.Node, 0, len(nodes))

	for _, n := range nodes {
		if n.Size >= minSize {
			out = append(out, n)
		}
	}

	return out
}

// PrintTree outputs the ranked tree with one directory per line, followed by a summary.
// Directories smaller than minSize are left out; the root is always shown.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTree(result *dutree.Result, writer io.Writer, minSize int64) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	root := result.Root
	total := root.Size

	fmt.Fprintf(w, "%s\t%s\t%s\n", root.Path, root.HumanSize, percent(root.Size, total))
	printBranches(w, root, "", total, minSize)

	// Stats summary
	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Directories:\t%s\t\n", humanize.Comma(result.DirCount))
	fmt.Fprintf(w, "Files:\t%s\t\n", humanize.Comma(result.FileCount))
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\t\n", root.HumanSize, root.Size)

	if result.ErrorCount > 0 {
		fmt.Fprintf(w, "Unreadable entries:\t%s\t\n", humanize.Comma(result.ErrorCount))
	}

	fmt.Fprintf(w, "Elapsed:\t%v\t\n", result.Elapsed)

	return w.Flush()
}

func printBranches(w io.Writer, node *dutree.Node, prefix string, total, minSize int64) {
	children := visible(node.Children, minSize)

	for i, child := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}

		fmt.Fprintf(w, "%s%s%s\t%s\t%s\n", prefix, branch, child.Name, child.HumanSize, percent(child.Size, total))
		printBranches(w, child, prefix+indent, total, minSize)
	}
}

// PrintList outputs one "size<TAB>path" line per directory, depth first.
// Directories smaller than minSize are left out, together with everything below them.
func PrintList(result *dutree.Result, writer io.Writer, minSize int64) error {
	var printNode func(*dutree.Node) error

	printNode = func(n *dutree.Node) error {
		if _, err := fmt.Fprintf(writer, "%s\t%s\n", n.HumanSize, n.Path); err != nil {
			return err
		}

		for _, child := range visible(n.Children, minSize) {
			if err := printNode(child); err != nil {
				return err
			}
		}

		return nil
	}

	return printNode(result.Root)
}

// PrintDiagnostics outputs one warning line per directory that could not be read.
func PrintDiagnostics(result *dutree.Result, writer io.Writer) error {
	for _, diag := range result.Diagnostics {
		if _, err := fmt.Fprintf(writer, "warning: %s\n", diag); err != nil {
			return err
		}
	}

	return nil
}

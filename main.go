// Command dutree shows the largest directories of a tree, ranked by size.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/dutree/internal/cli"
)

// version is set at build time.
//
//nolint:gochecknoglobals // Set by the linker
var version = "unknown - unofficial build"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Package dutree measures directory trees and builds size-ranked views of them.
//
// A scan computes the apparent size of every directory below a root exactly once,
// memoized in a per-scan SizeCache, and then builds a tree that is bounded in depth
// and, at every level, keeps only the largest N subdirectories. Symbolic links are
// never followed, so cyclic links cannot cause unbounded recursion.
//
// Failures below the root never abort a scan. Entries whose metadata cannot be read
// count as zero bytes, and directories that cannot be listed are reported as
// diagnostics alongside the result.
package dutree

// Package ccdiffer implements the Compile-Commands Differ (C11): comparing
// two compile-commands snapshots to find files whose argument vectors were
// added, removed, or changed.
package ccdiffer

import "github.com/cppindex/cppindex/internal/contenthash"

// Diff is the result of comparing an old and new {file: args} snapshot.
type Diff struct {
	Added   []string
	Removed []string
	Changed []string
}

// ComputeDiff compares old and new argument-vector maps. Changed uses
// order-sensitive list equality on the argument vectors, matching how a
// reordered flag is treated as a semantic change.
func ComputeDiff(old, new map[string][]string) Diff {
	var d Diff
	for file, newArgs := range new {
		oldArgs, existed := old[file]
		if !existed {
			d.Added = append(d.Added, file)
			continue
		}
		if !equalArgs(oldArgs, newArgs) {
			d.Changed = append(d.Changed, file)
		}
	}
	for file := range old {
		if _, stillPresent := new[file]; !stillPresent {
			d.Removed = append(d.Removed, file)
		}
	}
	return d
}

func equalArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hash returns the 16-hex-character compile_args_hash persisted per file
// for fast subsequent comparisons.
func Hash(args []string) string {
	return contenthash.Args(args)
}

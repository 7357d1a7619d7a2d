// Package cause explains why the classpath lacks a symbol: a version
// conflict hid the defining archive, an exclusion rule pruned it, or the
// artifact never made it onto the classpath at all. Attribution is
// best-effort and runs exactly once, after resolution.
package cause

import (
	"fmt"

	"linkcheck/internal/artifact"
	"linkcheck/internal/depgraph"
	"linkcheck/internal/symbols"
)

// Unknown is the fallback when no cause could be established.
type Unknown struct{}

func (Unknown) String() string { return "UnknownCause" }

// MissingArtifact blames an artifact that is absent from the classpath.
type MissingArtifact struct {
	Expected artifact.Artifact
}

func (m MissingArtifact) String() string {
	return "The expected artifact " + m.Expected.String() + " is not in the class path"
}

// ExcludedArtifact blames an exclusion rule that pruned the providing
// artifact from the dependency graph.
type ExcludedArtifact struct {
	Rule depgraph.Rule
	// Path is the dependency path the artifact would have had.
	Path depgraph.Path
}

func (e ExcludedArtifact) String() string {
	return fmt.Sprintf("The artifact is excluded by rule %s; it would have been at:\n  %s",
		e.Rule, e.Path)
}

// DependencyConflict blames version selection: the selected artifact lacks
// the symbol, the unselected one defines it.
type DependencyConflict struct {
	Symbol         symbols.Symbol
	Selected       artifact.Artifact
	SelectedPath   depgraph.Path
	Unselected     artifact.Artifact
	UnselectedPath depgraph.Path
}

func (c DependencyConflict) String() string {
	return "Dependency conflict: " + c.Selected.String() +
		" does not define " + c.Symbol.String() +
		" but " + c.Unselected.String() + " defines it.\n" +
		"  selected: " + c.SelectedPath.String() + "\n" +
		"  unselected: " + c.UnselectedPath.String()
}

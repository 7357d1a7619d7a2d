// Package depgraph resolves the transitive dependency graph for a root
// artifact set and records the dependency path that justifies every
// artifact's presence. Paths are the blame records consumed by the cause
// attributor.
package depgraph

import (
	"strings"

	"linkcheck/internal/artifact"
)

// Scope is the declared scope of a dependency edge.
type Scope string

const (
	// ScopeCompile is the default scope
	ScopeCompile Scope = "compile"
	// ScopeRuntime is needed at run time only
	ScopeRuntime Scope = "runtime"
	// ScopeProvided is expected from the runtime environment
	ScopeProvided Scope = "provided"
	// ScopeTest is used by tests only
	ScopeTest Scope = "test"
)

// Step is one node on a dependency path: the artifact plus the scope and
// optional flag of the edge that introduced it. The root step carries
// ScopeCompile and Optional=false by convention.
type Step struct {
	Artifact artifact.Artifact
	Scope    Scope
	Optional bool
}

// Path is an immutable ordered sequence of steps from a root artifact to a
// leaf. A path is never empty.
type Path struct {
	steps []Step
}

// NewPath creates a single-step path rooted at the given artifact.
func NewPath(root artifact.Artifact) Path {
	return Path{steps: []Step{{Artifact: root, Scope: ScopeCompile}}}
}

// Append returns a new path extended by one step. The receiver is unchanged.
func (p Path) Append(step Step) Path {
	steps := make([]Step, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	return Path{steps: append(steps, step)}
}

// Len returns the number of steps.
func (p Path) Len() int {
	return len(p.steps)
}

// Root returns the first artifact on the path.
func (p Path) Root() artifact.Artifact {
	return p.steps[0].Artifact
}

// Leaf returns the last artifact on the path.
func (p Path) Leaf() artifact.Artifact {
	return p.steps[len(p.steps)-1].Artifact
}

// Steps returns a copy of the path's steps.
func (p Path) Steps() []Step {
	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// IsZero reports whether the path is the zero value (no steps).
func (p Path) IsZero() bool {
	return len(p.steps) == 0
}

// Contains reports whether any step on the path carries the given artifact.
func (p Path) Contains(a artifact.Artifact) bool {
	for _, s := range p.steps {
		if s.Artifact == a {
			return true
		}
	}
	return false
}

// String renders the path as
// "g:a:1 / g:b:2 (compile) / g:c:3 (runtime, optional)".
// The root carries no scope annotation.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p.steps {
		if i > 0 {
			b.WriteString(" / ")
		}
		b.WriteString(s.Artifact.String())
		if i > 0 {
			b.WriteString(" (")
			b.WriteString(string(s.Scope))
			if s.Optional {
				b.WriteString(", optional")
			}
			b.WriteString(")")
		}
	}
	return b.String()
}

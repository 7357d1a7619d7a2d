package depgraph

import (
	"linkcheck/internal/artifact"
	"linkcheck/internal/errors"
	"linkcheck/internal/logging"
)

// Node pairs an artifact with the dependency path that brought it into the
// graph. The emission order of nodes defines classpath order downstream.
type Node struct {
	Artifact artifact.Artifact
	Path     Path
}

// Resolver produces the transitive dependency graph for a root set.
type Resolver interface {
	Resolve(roots []artifact.Artifact) ([]Node, error)
}

// Dependency is one declared edge out of an artifact.
type Dependency struct {
	Artifact artifact.Artifact
	Scope    Scope
	Optional bool
	// Excludes are "group:name" glob patterns the declaring artifact
	// applies to its whole subtree.
	Excludes []string
}

// DependencyLister reports the direct declared dependencies of an artifact.
// Implementations typically read artifact metadata from a local repository.
type DependencyLister interface {
	DirectDependencies(a artifact.Artifact) ([]Dependency, error)
}

// GraphResolver walks a DependencyLister breadth-first, applying exclusion
// rules and the conventional scope filters: provided and test edges are
// honored only on root artifacts, optional edges only on roots. Suppressed
// edges are retained for later blame attribution.
type GraphResolver struct {
	lister DependencyLister
	rules  []Rule
	logger *logging.Logger

	suppressed []Suppressed
}

// NewGraphResolver creates a resolver over the given lister. The rules are
// global exclusions applied to every edge in addition to per-edge excludes.
func NewGraphResolver(lister DependencyLister, rules []Rule, logger *logging.Logger) *GraphResolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &GraphResolver{lister: lister, rules: rules, logger: logger}
}

type queueItem struct {
	artifact artifact.Artifact
	path     Path
	// inherited per-edge exclusion rules accumulated along the path
	inherited []Rule
}

// Resolve returns the transitive closure of the root set in breadth-first
// order. An unresolvable root is fatal; an unresolvable transitive
// dependency is logged and treated as a leaf.
func (r *GraphResolver) Resolve(roots []artifact.Artifact) ([]Node, error) {
	r.suppressed = nil

	var nodes []Node
	var queue []queueItem
	visited := make(map[string]bool) // full coordinates, first path wins

	for _, root := range roots {
		if visited[root.String()] {
			continue
		}
		visited[root.String()] = true
		path := NewPath(root)
		nodes = append(nodes, Node{Artifact: root, Path: path})
		queue = append(queue, queueItem{artifact: root, path: path})
	}

	for head := 0; head < len(queue); head++ {
		item := queue[head]
		isRoot := item.path.Len() == 1

		deps, err := r.lister.DirectDependencies(item.artifact)
		if err != nil {
			if isRoot {
				return nil, errors.New(errors.ResolutionFailed,
					"cannot resolve root artifact "+item.artifact.String(), err)
			}
			r.logger.Warn("Skipping unresolvable dependency", map[string]interface{}{
				"artifact": item.artifact.String(),
				"error":    err.Error(),
			})
			continue
		}

		for _, dep := range deps {
			if !r.traversable(dep, isRoot) {
				continue
			}

			childPath := item.path.Append(Step{
				Artifact: dep.Artifact,
				Scope:    dep.Scope,
				Optional: dep.Optional,
			})

			if rule, excluded := r.excluded(item.artifact, dep.Artifact, item.inherited); excluded {
				r.suppressed = append(r.suppressed, Suppressed{
					Rule:     rule,
					Artifact: dep.Artifact,
					Path:     childPath,
				})
				r.logger.Debug("Excluded dependency edge", map[string]interface{}{
					"from": item.artifact.String(),
					"to":   dep.Artifact.String(),
					"rule": rule.String(),
				})
				continue
			}

			if visited[dep.Artifact.String()] {
				continue
			}
			visited[dep.Artifact.String()] = true

			nodes = append(nodes, Node{Artifact: dep.Artifact, Path: childPath})
			queue = append(queue, queueItem{
				artifact:  dep.Artifact,
				path:      childPath,
				inherited: appendEdgeRules(item.inherited, dep.Excludes),
			})
		}
	}

	return nodes, nil
}

// Excluded returns the edges suppressed during the last Resolve call.
func (r *GraphResolver) Excluded() []Suppressed {
	out := make([]Suppressed, len(r.suppressed))
	copy(out, r.suppressed)
	return out
}

func (r *GraphResolver) traversable(dep Dependency, fromRoot bool) bool {
	if dep.Optional && !fromRoot {
		return false
	}
	switch dep.Scope {
	case ScopeTest, ScopeProvided:
		return fromRoot
	default:
		return true
	}
}

func (r *GraphResolver) excluded(parent, child artifact.Artifact, inherited []Rule) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Matches(parent, child) {
			return rule, true
		}
	}
	// Per-edge excludes apply to the whole subtree below the declaring edge.
	for _, rule := range inherited {
		if rule.MatchesTarget(child) {
			return rule, true
		}
	}
	return Rule{}, false
}

func appendEdgeRules(inherited []Rule, excludes []string) []Rule {
	if len(excludes) == 0 {
		return inherited
	}
	out := make([]Rule, len(inherited), len(inherited)+len(excludes))
	copy(out, inherited)
	for _, pattern := range excludes {
		rule, err := NewRule("", pattern)
		if err != nil {
			// A bad pattern in artifact metadata cannot exclude anything.
			continue
		}
		out = append(out, rule)
	}
	return out
}

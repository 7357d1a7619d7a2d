// Package classpath reduces a resolved dependency graph to the ordered
// list of archives the linkage checker scans. The first artifact per module
// key wins; later module-equal artifacts are retained as unselected
// alternatives for blame attribution.
package classpath

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"linkcheck/internal/artifact"
	"linkcheck/internal/depgraph"
	"linkcheck/internal/logging"
)

// Entry is one archive on the classpath.
type Entry struct {
	Artifact artifact.Artifact
	// File is the local archive path.
	File string
}

// String renders the entry by coordinates when known, else by file name.
func (e Entry) String() string {
	if !e.Artifact.IsZero() {
		return e.Artifact.String()
	}
	return filepath.Base(e.File)
}

// Alternative records a module-equal artifact that lost version selection.
type Alternative struct {
	Selected     artifact.Artifact
	SelectedPath depgraph.Path
	Candidate    artifact.Artifact
	// CandidatePath is the dependency path the candidate would have had.
	CandidatePath depgraph.Path
}

// Result is the built classpath plus the selection bookkeeping the cause
// attributor needs.
type Result struct {
	entries    []Entry
	selected   map[string]depgraph.Path  // module key -> selected path
	unselected map[string][]Alternative  // module key -> losing candidates
	missing    []artifact.Artifact       // artifacts with no local archive
	excluded   []depgraph.Suppressed     // edges pruned during resolution
}

// Entries returns the ordered classpath.
func (r *Result) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// SelectedPath returns the dependency path of the entry selected for the
// given artifact, or the zero path when the artifact is not on the classpath.
func (r *Result) SelectedPath(a artifact.Artifact) depgraph.Path {
	return r.selected[a.Key()]
}

// Unselected returns the losing candidates for the artifact's module key.
func (r *Result) Unselected(a artifact.Artifact) []Alternative {
	return r.unselected[a.Key()]
}

// Missing returns graph artifacts for which no local archive was found.
func (r *Result) Missing() []artifact.Artifact {
	return r.missing
}

// Excluded returns the dependency edges suppressed by exclusion rules.
func (r *Result) Excluded() []depgraph.Suppressed {
	return r.excluded
}

// FormatDependencyPaths renders the dependency path of each given entry,
// in the classpath's order, for the trailing report section.
func (r *Result) FormatDependencyPaths(entries []Entry) string {
	seen := make(map[string]bool)
	var b strings.Builder
	for _, e := range r.entries {
		if !containsEntry(entries, e) || seen[e.String()] {
			continue
		}
		seen[e.String()] = true
		b.WriteString(e.String())
		b.WriteString(" is at:\n")
		if path := r.selected[e.Artifact.Key()]; !path.IsZero() {
			fmt.Fprintf(&b, "  %s\n", path)
		} else {
			fmt.Fprintf(&b, "  %s\n", e.File)
		}
	}
	return b.String()
}

func containsEntry(entries []Entry, e Entry) bool {
	for _, candidate := range entries {
		if candidate == e {
			return true
		}
	}
	return false
}

// Locator maps artifact coordinates to a local archive file.
type Locator interface {
	Locate(a artifact.Artifact) (string, error)
}

// Builder builds a classpath from resolver output.
type Builder struct {
	locator Locator
	logger  *logging.Logger
}

// NewBuilder creates a classpath builder over the given locator.
func NewBuilder(locator Locator, logger *logging.Logger) *Builder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Builder{locator: locator, logger: logger}
}

// Build walks the nodes in resolver emission order. The first artifact per
// module key is appended to the classpath; any later module-equal artifact
// becomes an unselected alternative. Only jar artifacts are eligible.
// Extra files are appended after all resolved entries, deduplicated by path.
func (b *Builder) Build(nodes []depgraph.Node, excluded []depgraph.Suppressed, extraFiles []string) (*Result, error) {
	result := &Result{
		selected:   make(map[string]depgraph.Path),
		unselected: make(map[string][]Alternative),
		excluded:   excluded,
	}
	selectedArtifact := make(map[string]artifact.Artifact)

	for _, node := range nodes {
		if node.Artifact.Extension != "" && node.Artifact.Extension != artifact.DefaultExtension {
			continue
		}
		key := node.Artifact.Key()

		if winner, taken := selectedArtifact[key]; taken {
			result.unselected[key] = append(result.unselected[key], Alternative{
				Selected:      winner,
				SelectedPath:  result.selected[key],
				Candidate:     node.Artifact,
				CandidatePath: node.Path,
			})
			continue
		}

		file, err := b.locator.Locate(node.Artifact)
		if err != nil {
			b.logger.Warn("No local archive for artifact", map[string]interface{}{
				"artifact": node.Artifact.String(),
				"error":    err.Error(),
			})
			result.missing = append(result.missing, node.Artifact)
			continue
		}

		selectedArtifact[key] = node.Artifact
		result.selected[key] = node.Path
		result.entries = append(result.entries, Entry{Artifact: node.Artifact, File: file})
	}

	seenFile := make(map[string]bool)
	for _, e := range result.entries {
		seenFile[e.File] = true
	}
	for _, file := range extraFiles {
		if seenFile[file] {
			continue
		}
		seenFile[file] = true
		result.entries = append(result.entries, Entry{File: file})
	}

	return result, nil
}

// SortAlternatives orders alternatives deterministically for output.
func SortAlternatives(alts []Alternative) {
	sort.Slice(alts, func(i, j int) bool {
		if alts[i].Candidate != alts[j].Candidate {
			return alts[i].Candidate.Less(alts[j].Candidate)
		}
		return alts[i].CandidatePath.String() < alts[j].CandidatePath.String()
	})
}

package cause

import (
	"strings"

	"linkcheck/internal/artifact"
	"linkcheck/internal/classpath"
	"linkcheck/internal/linkage"
	"linkcheck/internal/logging"
	"linkcheck/internal/repository"
	"linkcheck/internal/symbols"
)

// Attributor annotates unresolved problems with their causes by consulting
// the classpath builder's selection bookkeeping.
type Attributor struct {
	repo      *repository.Repository
	result    *classpath.Result
	inspector Inspector
	logger    *logging.Logger
}

// NewAttributor creates an attributor. The inspector may be nil, in which
// case conflicts with off-classpath artifacts and exclusions cannot be
// proven and degrade to UnknownCause.
func NewAttributor(repo *repository.Repository, result *classpath.Result, inspector Inspector, logger *logging.Logger) *Attributor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Attributor{repo: repo, result: result, inspector: inspector, logger: logger}
}

// Annotate sets the cause of every problem in place. Attribution never
// fails the run; a problem whose cause cannot be established keeps
// UnknownCause.
func (a *Attributor) Annotate(problems []*linkage.Problem) {
	for _, p := range problems {
		p.Cause = a.attribute(p)
	}
}

func (a *Attributor) attribute(p *linkage.Problem) linkage.Cause {
	owner := p.Symbol.OwnerName()

	if !a.repo.DefinesClass(owner) {
		return a.attributeMissingClass(p, owner)
	}
	return a.attributeMissingMember(p, owner)
}

// attributeMissingClass handles problems whose owner class is on no
// classpath entry: an unselected version, an excluded edge, or a missing
// artifact may explain it.
func (a *Attributor) attributeMissingClass(p *linkage.Problem, owner string) linkage.Cause {
	if a.inspector != nil {
		for _, entry := range a.repo.Entries() {
			for _, alt := range a.result.Unselected(entry.Artifact) {
				defines, err := a.inspector.DefinesClass(alt.Candidate, owner)
				if err != nil || !defines {
					continue
				}
				return DependencyConflict{
					Symbol:         p.Symbol,
					Selected:       alt.Selected,
					SelectedPath:   alt.SelectedPath,
					Unselected:     alt.Candidate,
					UnselectedPath: alt.CandidatePath,
				}
			}
		}

		for _, sup := range a.result.Excluded() {
			defines, err := a.inspector.DefinesClass(sup.Artifact, owner)
			if err != nil || !defines {
				continue
			}
			return ExcludedArtifact{Rule: sup.Rule, Path: sup.Path}
		}
	}

	if expected, ok := a.inferMissingArtifact(owner); ok {
		return MissingArtifact{Expected: expected}
	}
	return Unknown{}
}

// attributeMissingMember handles problems whose owner class resolved but
// lacks the member: a version conflict is the usual explanation, either
// with an unselected alternative or with a shadowed classpath definition.
func (a *Attributor) attributeMissingMember(p *linkage.Problem, owner string) linkage.Cause {
	shadows := a.repo.ShadowEntries(owner)
	selectedEntry := shadows[0]

	if a.inspector != nil {
		for _, alt := range a.result.Unselected(selectedEntry.Artifact) {
			defines, err := a.inspector.DefinesSymbol(alt.Candidate, p.Symbol)
			if err != nil || !defines {
				continue
			}
			return DependencyConflict{
				Symbol:         p.Symbol,
				Selected:       alt.Selected,
				SelectedPath:   alt.SelectedPath,
				Unselected:     alt.Candidate,
				UnselectedPath: alt.CandidatePath,
			}
		}
	}

	// A module-distinct archive later on the classpath may define the
	// symbol in a shadowed copy of the owner class.
	for _, shadow := range shadows[1:] {
		defines := a.shadowDefinesSymbol(shadow, p.Symbol)
		if !defines {
			continue
		}
		return DependencyConflict{
			Symbol:         p.Symbol,
			Selected:       selectedEntry.Artifact,
			SelectedPath:   a.result.SelectedPath(selectedEntry.Artifact),
			Unselected:     shadow.Artifact,
			UnselectedPath: a.result.SelectedPath(shadow.Artifact),
		}
	}

	return Unknown{}
}

func (a *Attributor) shadowDefinesSymbol(shadow classpath.Entry, symbol symbols.Symbol) bool {
	cf, err := a.repo.FindIn(shadow, symbol.OwnerName())
	if err != nil {
		return false
	}
	switch sym := symbol.(type) {
	case symbols.Method:
		return cf.FindMethod(sym.Name, sym.Descriptor) != nil
	case symbols.Field:
		return cf.FindField(sym.Name, sym.Descriptor) != nil
	default:
		return true
	}
}

// inferMissingArtifact guesses which absent artifact should have provided
// the owner class. Candidates are the graph artifacts that had no local
// archive; a candidate matches when its group, as a package prefix, covers
// the owner, or its name appears as a package segment.
func (a *Attributor) inferMissingArtifact(owner string) (artifact.Artifact, bool) {
	var match artifact.Artifact
	matches := 0
	for _, missing := range a.result.Missing() {
		if artifactCovers(missing, owner) {
			match = missing
			matches++
		}
	}
	if matches == 1 {
		return match, true
	}
	return artifact.Artifact{}, false
}

func artifactCovers(a artifact.Artifact, internalName string) bool {
	groupPath := strings.ReplaceAll(a.Group, ".", "/")
	if strings.HasPrefix(internalName, groupPath+"/") {
		return true
	}
	pkg := internalName
	if idx := strings.LastIndexByte(pkg, '/'); idx >= 0 {
		pkg = pkg[:idx]
	}
	for _, segment := range strings.Split(pkg, "/") {
		if segment == a.Name || strings.ReplaceAll(segment, "_", "-") == a.Name {
			return true
		}
	}
	return false
}

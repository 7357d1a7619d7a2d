package depgraph

import (
	"os"

	"gopkg.in/yaml.v3"

	"linkcheck/internal/artifact"
	"linkcheck/internal/errors"
)

// FileLister serves direct dependencies from a pre-resolved graph file.
// Artifact fetchers export such files; the checker itself never talks to a
// remote registry.
type FileLister struct {
	direct map[string][]Dependency
}

type graphFile struct {
	Artifacts []graphFileArtifact `yaml:"artifacts"`
}

type graphFileArtifact struct {
	Coordinates  string                `yaml:"coordinates"`
	Dependencies []graphFileDependency `yaml:"dependencies"`
}

type graphFileDependency struct {
	Coordinates string   `yaml:"coordinates"`
	Scope       string   `yaml:"scope"`
	Optional    bool     `yaml:"optional"`
	Excludes    []string `yaml:"excludes"`
}

// LoadDependencyFile reads a dependency graph file:
//
//	artifacts:
//	  - coordinates: com.example:app:1.0
//	    dependencies:
//	      - coordinates: com.google.guava:guava:32.1.2-jre
//	        scope: compile
//	        excludes: ["com.google.code.findbugs:*"]
func LoadDependencyFile(path string) (*FileLister, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ResolutionFailed, "cannot read graph file", err)
	}

	var f graphFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.ResolutionFailed, "cannot parse graph file", err)
	}

	lister := &FileLister{direct: make(map[string][]Dependency)}
	for _, entry := range f.Artifacts {
		a, err := artifact.Parse(entry.Coordinates)
		if err != nil {
			return nil, errors.New(errors.ResolutionFailed, "bad graph file entry", err)
		}

		deps := make([]Dependency, 0, len(entry.Dependencies))
		for _, d := range entry.Dependencies {
			da, err := artifact.Parse(d.Coordinates)
			if err != nil {
				return nil, errors.New(errors.ResolutionFailed, "bad graph file dependency", err)
			}
			scope := Scope(d.Scope)
			if scope == "" {
				scope = ScopeCompile
			}
			deps = append(deps, Dependency{
				Artifact: da,
				Scope:    scope,
				Optional: d.Optional,
				Excludes: d.Excludes,
			})
		}
		lister.direct[a.String()] = deps
	}
	return lister, nil
}

// Knows reports whether the file describes the artifact. Roots must be
// described; unknown transitive artifacts are plain leaves.
func (l *FileLister) Knows(a artifact.Artifact) bool {
	_, ok := l.direct[a.String()]
	return ok
}

// DirectDependencies implements DependencyLister.
func (l *FileLister) DirectDependencies(a artifact.Artifact) ([]Dependency, error) {
	return l.direct[a.String()], nil
}

// EmptyLister treats every artifact as a leaf. Used when only explicit
// roots and extra archives form the classpath.
type EmptyLister struct{}

// DirectDependencies implements DependencyLister.
func (EmptyLister) DirectDependencies(artifact.Artifact) ([]Dependency, error) {
	return nil, nil
}

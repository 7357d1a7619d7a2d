package depgraph

import (
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"linkcheck/internal/artifact"
	"linkcheck/internal/errors"
)

// Manifest is a Bill-of-Materials: a list of member artifacts whose sole
// role is to pin versions. Members become the root set of the dependency
// graph.
type Manifest struct {
	Members []artifact.Artifact
}

type manifestFile struct {
	Artifacts []string `yaml:"artifacts"`
}

// LoadManifest reads a BOM manifest file:
//
//	artifacts:
//	  - com.google.guava:guava:32.1.2-jre
//	  - io.grpc:grpc-core:1.57.2
//
// Duplicate declarations for the same module key keep the highest version
// when both parse as semantic versions, otherwise the last declaration.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ResolutionFailed, "cannot read manifest", err)
	}

	var f manifestFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.ResolutionFailed, "cannot parse manifest", err)
	}
	if len(f.Artifacts) == 0 {
		return nil, errors.Newf(errors.ResolutionFailed, "manifest %s lists no artifacts", path)
	}

	byKey := make(map[string]artifact.Artifact)
	var order []string
	for _, coords := range f.Artifacts {
		a, err := artifact.Parse(coords)
		if err != nil {
			return nil, errors.New(errors.ResolutionFailed, "bad manifest entry", err)
		}
		key := a.Key()
		prev, seen := byKey[key]
		if !seen {
			byKey[key] = a
			order = append(order, key)
			continue
		}
		byKey[key] = pickVersion(prev, a)
	}

	m := &Manifest{Members: make([]artifact.Artifact, 0, len(order))}
	for _, key := range order {
		m.Members = append(m.Members, byKey[key])
	}
	return m, nil
}

// pickVersion prefers the higher semantic version; when either version does
// not parse, the later declaration wins.
func pickVersion(prev, next artifact.Artifact) artifact.Artifact {
	pv, nv := "v"+prev.Version, "v"+next.Version
	if semver.IsValid(pv) && semver.IsValid(nv) {
		if semver.Compare(pv, nv) >= 0 {
			return prev
		}
	}
	return next
}

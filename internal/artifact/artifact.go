// Package artifact models Maven-style artifact coordinates.
// Version selection is performed upstream by the dependency resolver;
// this package only provides identity, ordering, and formatting.
package artifact

import (
	"fmt"
	"strings"
)

// DefaultExtension is assumed when coordinates omit the packaging type.
const DefaultExtension = "jar"

// Artifact identifies a versioned library by its coordinates.
type Artifact struct {
	Group      string
	Name       string
	Version    string
	Classifier string
	Extension  string // empty means DefaultExtension
}

// New creates an artifact with the default (jar) extension.
func New(group, name, version string) Artifact {
	return Artifact{Group: group, Name: name, Version: version}
}

// Parse parses "group:name:version" or "group:name:classifier:version"
// coordinate strings.
func Parse(coordinates string) (Artifact, error) {
	parts := strings.Split(coordinates, ":")
	switch len(parts) {
	case 3:
		a := Artifact{Group: parts[0], Name: parts[1], Version: parts[2]}
		return a, a.validate(coordinates)
	case 4:
		a := Artifact{Group: parts[0], Name: parts[1], Classifier: parts[2], Version: parts[3]}
		return a, a.validate(coordinates)
	default:
		return Artifact{}, fmt.Errorf("invalid coordinates %q: want group:name[:classifier]:version", coordinates)
	}
}

func (a Artifact) validate(coordinates string) error {
	if a.Group == "" || a.Name == "" || a.Version == "" {
		return fmt.Errorf("invalid coordinates %q: empty component", coordinates)
	}
	return nil
}

// String renders the canonical coordinate form group:name[:classifier]:version.
func (a Artifact) String() string {
	if a.Classifier != "" {
		return a.Group + ":" + a.Name + ":" + a.Classifier + ":" + a.Version
	}
	return a.Group + ":" + a.Name + ":" + a.Version
}

// Key returns the version-independent module key. Two artifacts with the
// same key compete for the same classpath slot.
func (a Artifact) Key() string {
	key := a.Group + ":" + a.Name
	if a.Classifier != "" {
		key += ":" + a.Classifier
	}
	if ext := a.extension(); ext != DefaultExtension {
		key += ":" + ext
	}
	return key
}

func (a Artifact) extension() string {
	if a.Extension == "" {
		return DefaultExtension
	}
	return a.Extension
}

// ModuleEqual reports whether two artifacts differ only in version.
func (a Artifact) ModuleEqual(other Artifact) bool {
	return a.Key() == other.Key()
}

// IsZero reports whether the artifact is the zero value.
func (a Artifact) IsZero() bool {
	return a.Group == "" && a.Name == "" && a.Version == ""
}

// Less orders artifacts lexicographically by module key, then by version
// string. Versions chosen upstream are never re-ranked here; this ordering
// exists only so output is stable.
func (a Artifact) Less(other Artifact) bool {
	if ak, bk := a.Key(), other.Key(); ak != bk {
		return ak < bk
	}
	return a.Version < other.Version
}

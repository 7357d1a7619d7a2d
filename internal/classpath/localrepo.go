package classpath

import (
	"os"
	"path/filepath"
	"strings"

	"linkcheck/internal/artifact"
	"linkcheck/internal/errors"
)

// LocalRepository locates archives in a Maven-layout local repository
// (<root>/<group path>/<name>/<version>/<name>-<version>[-<classifier>].jar).
// Fetching artifacts into the repository is a collaborator's job; the
// checker only reads what is already on disk.
type LocalRepository struct {
	root string
}

// NewLocalRepository creates a locator over the given repository root.
// An empty root means ~/.m2/repository.
func NewLocalRepository(root string) (*LocalRepository, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.New(errors.ConfigInvalid, "cannot determine home directory", err)
		}
		root = filepath.Join(home, ".m2", "repository")
	}
	return &LocalRepository{root: root}, nil
}

// Locate implements Locator.
func (r *LocalRepository) Locate(a artifact.Artifact) (string, error) {
	file := a.Name + "-" + a.Version
	if a.Classifier != "" {
		file += "-" + a.Classifier
	}
	file += "." + artifact.DefaultExtension

	path := filepath.Join(
		r.root,
		filepath.FromSlash(strings.ReplaceAll(a.Group, ".", "/")),
		a.Name,
		a.Version,
		file,
	)
	if _, err := os.Stat(path); err != nil {
		return "", errors.New(errors.ArtifactNotFound, "no archive for "+a.String(), err)
	}
	return path, nil
}

// MapLocator is a fixed coordinates-to-file mapping, used by tests and by
// callers that assemble classpaths without a repository layout.
type MapLocator map[string]string

// Locate implements Locator.
func (m MapLocator) Locate(a artifact.Artifact) (string, error) {
	if path, ok := m[a.String()]; ok {
		return path, nil
	}
	return "", errors.Newf(errors.ArtifactNotFound, "no archive for %s", a)
}

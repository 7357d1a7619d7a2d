// Package archive provides read access to classpath archives (jar files).
// Open file handles are bounded by an LRU; evicted archives are reopened
// on demand.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	lru "github.com/hashicorp/golang-lru/v2"

	"linkcheck/internal/errors"
	"linkcheck/internal/logging"
)

// ClassSuffix is the archive entry suffix of compiled class files.
const ClassSuffix = ".class"

// Reader is the minimal archive access the checker core needs. Implemented
// by Manager; tests may substitute in-memory archives.
type Reader interface {
	// ClassNames lists the internal names of all class files in the archive.
	ClassNames(path string) ([]string, error)
	// ReadClass returns the raw bytes of one class file.
	ReadClass(path, internalName string) ([]byte, error)
}

// Manager caches open archive handles. Safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	open   *lru.Cache[string, *zip.ReadCloser]
	logger *logging.Logger
}

// NewManager creates a manager holding at most maxOpen archives open.
func NewManager(maxOpen int, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if maxOpen < 1 {
		maxOpen = 1
	}
	cache, err := lru.NewWithEvict(maxOpen, func(path string, rc *zip.ReadCloser) {
		_ = rc.Close()
	})
	if err != nil {
		return nil, errors.New(errors.InternalError, "cannot create archive cache", err)
	}
	return &Manager{open: cache, logger: logger}, nil
}

// Close releases every open archive handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open.Purge()
	return nil
}

// handle returns an open reader for the archive, opening it if needed.
// A transient open failure is retried once.
func (m *Manager) handle(path string) (*zip.ReadCloser, error) {
	if rc, ok := m.open.Get(path); ok {
		return rc, nil
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		m.logger.Debug("Retrying archive open", map[string]interface{}{
			"archive": path,
			"error":   err.Error(),
		})
		rc, err = zip.OpenReader(path)
	}
	if err != nil {
		return nil, errors.New(errors.ArchiveIO, "cannot open archive "+path, err)
	}
	m.open.Add(path, rc)
	return rc, nil
}

// ClassNames lists the internal names of the class files in the archive, in
// sorted order. Entries under META-INF (multi-release variants, signatures)
// and module descriptors are not classpath classes and are skipped.
func (m *Manager) ClassNames(path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rc, err := m.handle(path)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, f := range rc.File {
		name, ok := classEntryName(f.Name)
		if !ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ReadClass returns the raw bytes of the named class file.
func (m *Manager) ReadClass(path, internalName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rc, err := m.handle(path)
	if err != nil {
		return nil, err
	}

	want := internalName + ClassSuffix
	for _, f := range rc.File {
		if f.Name != want {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, errors.New(errors.ArchiveIO, "cannot read "+want+" in "+path, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.New(errors.ArchiveIO, "cannot read "+want+" in "+path, err)
		}
		return data, nil
	}
	return nil, errors.Newf(errors.ArchiveIO, "no entry %s in %s", want, path)
}

// Digest returns a hex SHA-256 over the archive's entry names and CRC-32
// values, used as the symbol cache key.
func (m *Manager) Digest(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rc, err := m.handle(path)
	if err != nil {
		return "", err
	}

	// Hash the central directory identity rather than re-reading the whole
	// file: entry names plus CRCs change whenever content changes.
	h := sha256.New()
	for _, f := range rc.File {
		_, _ = io.WriteString(h, f.Name)
		_, _ = h.Write([]byte{
			byte(f.CRC32), byte(f.CRC32 >> 8), byte(f.CRC32 >> 16), byte(f.CRC32 >> 24),
		})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func classEntryName(entryName string) (string, bool) {
	if !strings.HasSuffix(entryName, ClassSuffix) {
		return "", false
	}
	if strings.HasPrefix(entryName, "META-INF/") {
		return "", false
	}
	name := strings.TrimSuffix(entryName, ClassSuffix)
	if name == "module-info" || strings.HasSuffix(name, "/module-info") {
		return "", false
	}
	return name, true
}

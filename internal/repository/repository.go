// Package repository maps internal class names to parsed class files and
// the classpath entries that define them. Lookup is first-match in
// classpath order; later definitions are shadow entries kept only for
// conflict attribution.
package repository

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"linkcheck/internal/archive"
	"linkcheck/internal/classfile"
	"linkcheck/internal/classpath"
	"linkcheck/internal/errors"
	"linkcheck/internal/logging"
)

// systemPackagePrefixes name the packages shipped with the runtime. Classes
// under them are always present and never shadowed by classpath archives.
var systemPackagePrefixes = []string{
	"java/",
	"javax/",
	"jdk/",
	"sun/",
	"com/sun/",
	"org/w3c/dom/",
	"org/xml/sax/",
	"org/ietf/jgss/",
}

// IsSystemClass reports whether the internal name belongs to a runtime
// module.
func IsSystemClass(name string) bool {
	for _, prefix := range systemPackagePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Location is a parsed class file together with its defining entry.
type Location struct {
	Class *classfile.ClassFile
	Entry classpath.Entry
}

// Repository resolves class names against an ordered classpath. Parsed
// class files are cached in a bounded LRU; re-parsing after eviction is
// correct because parsing is pure. Safe for concurrent use with at most one
// parse per (entry, class) in flight.
type Repository struct {
	entries []classpath.Entry
	// defining lists, for each class name, the entries that provide it,
	// in classpath order.
	defining map[string][]classpath.Entry
	reader   archive.Reader
	cache    *lru.Cache[string, *classfile.ClassFile]
	group    singleflight.Group
	logger   *logging.Logger
}

// New indexes the classpath entries and returns a repository. The index
// holds only (class name, entry) pairs; class files parse lazily on first
// lookup. An unreadable archive is logged and contributes no classes.
func New(reader archive.Reader, entries []classpath.Entry, cacheSize int, logger *logging.Logger) (*Repository, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[string, *classfile.ClassFile](cacheSize)
	if err != nil {
		return nil, errors.New(errors.InternalError, "cannot create class cache", err)
	}

	r := &Repository{
		entries:  entries,
		defining: make(map[string][]classpath.Entry),
		reader:   reader,
		cache:    cache,
		logger:   logger,
	}

	for _, entry := range entries {
		names, err := reader.ClassNames(entry.File)
		if err != nil {
			logger.Warn("Cannot index archive", map[string]interface{}{
				"archive": entry.File,
				"error":   err.Error(),
			})
			continue
		}
		for _, name := range names {
			r.defining[name] = append(r.defining[name], entry)
		}
	}

	return r, nil
}

// Entries returns the classpath the repository was built over.
func (r *Repository) Entries() []classpath.Entry {
	return r.entries
}

// FindClass resolves the internal name to its first-match class file.
// ok is false when no classpath entry defines the name. A parse failure of
// the first-match definition is returned as an error; the class is treated
// as unusable rather than falling through to a shadow.
func (r *Repository) FindClass(name string) (Location, bool, error) {
	defining, present := r.defining[name]
	if !present {
		return Location{}, false, nil
	}
	entry := defining[0]
	cf, err := r.parse(entry, name)
	if err != nil {
		return Location{}, true, err
	}
	return Location{Class: cf, Entry: entry}, true, nil
}

// DefinesClass reports whether any classpath entry provides the name.
func (r *Repository) DefinesClass(name string) bool {
	_, present := r.defining[name]
	return present
}

// ShadowEntries returns every entry defining the name, in classpath order,
// including the selected first match.
func (r *Repository) ShadowEntries(name string) []classpath.Entry {
	return r.defining[name]
}

// ClassNamesIn returns the class names whose first-match definition is the
// given entry, in sorted order.
func (r *Repository) ClassNamesIn(entry classpath.Entry) []string {
	var names []string
	for name, defining := range r.defining {
		if defining[0] == entry {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FindIn parses the named class from a specific entry, bypassing
// first-match selection. Used by the cause attributor to inspect shadows.
func (r *Repository) FindIn(entry classpath.Entry, name string) (*classfile.ClassFile, error) {
	return r.parse(entry, name)
}

func (r *Repository) parse(entry classpath.Entry, name string) (*classfile.ClassFile, error) {
	key := entry.File + "|" + name
	if cf, ok := r.cache.Get(key); ok {
		return cf, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if cf, ok := r.cache.Get(key); ok {
			return cf, nil
		}
		data, err := r.reader.ReadClass(entry.File, name)
		if err != nil {
			return nil, err
		}
		cf, err := classfile.Parse(data)
		if err != nil {
			return nil, err
		}
		r.cache.Add(key, cf)
		return cf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*classfile.ClassFile), nil
}

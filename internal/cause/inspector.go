package cause

import (
	"linkcheck/internal/archive"
	"linkcheck/internal/artifact"
	"linkcheck/internal/classfile"
	"linkcheck/internal/classpath"
	"linkcheck/internal/symbols"
)

// Inspector answers whether an artifact that is NOT on the classpath
// (an unselected version, or an excluded dependency) would define a class
// or symbol. Attribution needs this to prove the "unselected defines it"
// half of a conflict.
type Inspector interface {
	DefinesClass(a artifact.Artifact, internalName string) (bool, error)
	DefinesSymbol(a artifact.Artifact, symbol symbols.Symbol) (bool, error)
}

// ArchiveInspector inspects artifacts through a locator and archive reader.
type ArchiveInspector struct {
	locator classpath.Locator
	reader  archive.Reader
}

// NewArchiveInspector creates an inspector over the given locator and
// reader.
func NewArchiveInspector(locator classpath.Locator, reader archive.Reader) *ArchiveInspector {
	return &ArchiveInspector{locator: locator, reader: reader}
}

// DefinesClass implements Inspector.
func (i *ArchiveInspector) DefinesClass(a artifact.Artifact, internalName string) (bool, error) {
	path, err := i.locator.Locate(a)
	if err != nil {
		return false, err
	}
	names, err := i.reader.ClassNames(path)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == internalName {
			return true, nil
		}
	}
	return false, nil
}

// DefinesSymbol implements Inspector. Only the owner class's own
// declarations count; attribution does not re-run hierarchy resolution
// inside foreign archives.
func (i *ArchiveInspector) DefinesSymbol(a artifact.Artifact, symbol symbols.Symbol) (bool, error) {
	owner := symbol.OwnerName()
	if _, isClass := symbol.(symbols.Class); isClass {
		return i.DefinesClass(a, owner)
	}

	path, err := i.locator.Locate(a)
	if err != nil {
		return false, err
	}
	data, err := i.reader.ReadClass(path, owner)
	if err != nil {
		return false, nil // the archive lacks the owner entirely
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return false, err
	}

	switch sym := symbol.(type) {
	case symbols.Method:
		return cf.FindMethod(sym.Name, sym.Descriptor) != nil, nil
	case symbols.Field:
		return cf.FindField(sym.Name, sym.Descriptor) != nil, nil
	default:
		return false, nil
	}
}

package symbols

import (
	"sort"
	"strings"

	"linkcheck/internal/classfile"
)

// ClassRef is a class reference with its super-declaration marker. ViaSuper
// is a property of the reference site, not of the symbol: it is ignored in
// symbol equality and cleared once a linkage problem is recorded.
type ClassRef struct {
	Symbol   Class
	ViaSuper bool
}

// References are the outbound symbolic references of one class file,
// deduplicated and sorted for deterministic iteration.
type References struct {
	ClassRefs  []ClassRef
	MethodRefs []Method
	FieldRefs  []Field
}

// Extract enumerates every outbound reference of the class file: each Class
// constant except the class itself (arrays unwrapped to their element class,
// primitive element types discarded), each Methodref/InterfaceMethodref
// whose owner is not an array type, each Fieldref, and outer classes named
// by the InnerClasses attribute.
// Extraction is pure; calling it twice yields equal results.
func Extract(cf *classfile.ClassFile) References {
	classes := make(map[string]bool)
	viaSuper := make(map[string]bool)

	addClass := func(name string, super bool) {
		elem := classfile.ElementClassName(name)
		if elem == "" || elem == cf.Name {
			return
		}
		classes[elem] = true
		if super {
			viaSuper[elem] = true
		}
	}

	for _, name := range cf.Pool().ClassNames() {
		addClass(name, name == cf.SuperName && cf.SuperName != "")
	}
	for _, outer := range cf.OuterReferences() {
		addClass(outer, false)
	}

	methods := make(map[Method]bool)
	for _, ref := range cf.Pool().MethodRefs() {
		owner := classfile.ElementClassName(ref.Owner)
		if owner == "" || strings.HasPrefix(ref.Owner, "[") {
			// Methods invoked on arrays resolve against the runtime's
			// array types, not a class file on the classpath.
			continue
		}
		methods[Method{
			Owner:       owner,
			Name:        ref.Name,
			Descriptor:  ref.Descriptor,
			OnInterface: ref.OnInterface,
		}] = true
	}

	fields := make(map[Field]bool)
	for _, ref := range cf.Pool().FieldRefs() {
		owner := classfile.ElementClassName(ref.Owner)
		if owner == "" {
			continue
		}
		fields[Field{Owner: owner, Name: ref.Name, Descriptor: ref.Descriptor}] = true
	}

	refs := References{}
	for owner := range classes {
		refs.ClassRefs = append(refs.ClassRefs, ClassRef{
			Symbol:   Class{Owner: owner},
			ViaSuper: viaSuper[owner],
		})
	}
	sort.Slice(refs.ClassRefs, func(i, j int) bool {
		return refs.ClassRefs[i].Symbol.Owner < refs.ClassRefs[j].Symbol.Owner
	})

	for m := range methods {
		refs.MethodRefs = append(refs.MethodRefs, m)
	}
	sort.Slice(refs.MethodRefs, func(i, j int) bool {
		return methodLess(refs.MethodRefs[i], refs.MethodRefs[j])
	})

	for f := range fields {
		refs.FieldRefs = append(refs.FieldRefs, f)
	}
	sort.Slice(refs.FieldRefs, func(i, j int) bool {
		return fieldLess(refs.FieldRefs[i], refs.FieldRefs[j])
	})

	return refs
}

func methodLess(a, b Method) bool {
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.Descriptor != b.Descriptor {
		return a.Descriptor < b.Descriptor
	}
	return !a.OnInterface && b.OnInterface
}

func fieldLess(a, b Field) bool {
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Descriptor < b.Descriptor
}

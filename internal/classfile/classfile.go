// Package classfile parses the JVM class file format. Only the linkage
// surface is retained: constant pool references, access flags, the
// inheritance declaration, and member names with descriptors. Code bodies,
// stack maps, generic signatures, and annotations are not interpreted.
package classfile

import "strings"

// Access flag bits as defined by the class file format.
const (
	AccPublic     AccessFlags = 0x0001
	AccPrivate    AccessFlags = 0x0002
	AccProtected  AccessFlags = 0x0004
	AccStatic     AccessFlags = 0x0008
	AccFinal      AccessFlags = 0x0010
	AccSuper      AccessFlags = 0x0020
	AccBridge     AccessFlags = 0x0040
	AccVarargs    AccessFlags = 0x0080
	AccNative     AccessFlags = 0x0100
	AccInterface  AccessFlags = 0x0200
	AccAbstract   AccessFlags = 0x0400
	AccSynthetic  AccessFlags = 0x1000
	AccAnnotation AccessFlags = 0x2000
	AccEnum       AccessFlags = 0x4000
)

// AccessFlags is the access_flags bit set of a class or member.
type AccessFlags uint16

// IsPublic reports the ACC_PUBLIC bit.
func (f AccessFlags) IsPublic() bool { return f&AccPublic != 0 }

// IsPrivate reports the ACC_PRIVATE bit.
func (f AccessFlags) IsPrivate() bool { return f&AccPrivate != 0 }

// IsProtected reports the ACC_PROTECTED bit.
func (f AccessFlags) IsProtected() bool { return f&AccProtected != 0 }

// IsPackagePrivate reports that no visibility bit is set.
func (f AccessFlags) IsPackagePrivate() bool {
	return f&(AccPublic|AccPrivate|AccProtected) == 0
}

// IsStatic reports the ACC_STATIC bit.
func (f AccessFlags) IsStatic() bool { return f&AccStatic != 0 }

// IsFinal reports the ACC_FINAL bit.
func (f AccessFlags) IsFinal() bool { return f&AccFinal != 0 }

// IsInterface reports the ACC_INTERFACE bit.
func (f AccessFlags) IsInterface() bool { return f&AccInterface != 0 }

// IsAbstract reports the ACC_ABSTRACT bit.
func (f AccessFlags) IsAbstract() bool { return f&AccAbstract != 0 }

// IsSynthetic reports the ACC_SYNTHETIC bit.
func (f AccessFlags) IsSynthetic() bool { return f&AccSynthetic != 0 }

// Member is a declared field or method.
type Member struct {
	Name       string
	Descriptor string
	Flags      AccessFlags
}

// InnerClassEntry is one row of the InnerClasses attribute.
type InnerClassEntry struct {
	Inner string // internal name, may be ""
	Outer string // internal name, may be ""
}

// ClassFile is the parsed form of one class file.
type ClassFile struct {
	// Name is the internal binary name (slashes, not dots).
	Name         string
	MinorVersion uint16
	MajorVersion uint16
	Flags        AccessFlags
	// SuperName is "" only for java/lang/Object.
	SuperName  string
	Interfaces []string
	Fields     []Member
	Methods    []Member
	// InnerClasses holds the InnerClasses attribute rows.
	InnerClasses []InnerClassEntry

	pool *ConstantPool
}

// Pool exposes the constant pool for symbol extraction.
func (c *ClassFile) Pool() *ConstantPool {
	return c.pool
}

// BinaryName returns the dotted binary name.
func (c *ClassFile) BinaryName() string {
	return strings.ReplaceAll(c.Name, "/", ".")
}

// PackageName returns the dotted package, "" for the default package.
func (c *ClassFile) PackageName() string {
	idx := strings.LastIndexByte(c.Name, '/')
	if idx < 0 {
		return ""
	}
	return strings.ReplaceAll(c.Name[:idx], "/", ".")
}

// FindMethod returns the declared method with the exact name and
// descriptor, or nil.
func (c *ClassFile) FindMethod(name, descriptor string) *Member {
	for i := range c.Methods {
		if c.Methods[i].Name == name && c.Methods[i].Descriptor == descriptor {
			return &c.Methods[i]
		}
	}
	return nil
}

// FindField returns the declared field with the exact name and descriptor,
// or nil.
func (c *ClassFile) FindField(name, descriptor string) *Member {
	for i := range c.Fields {
		if c.Fields[i].Name == name && c.Fields[i].Descriptor == descriptor {
			return &c.Fields[i]
		}
	}
	return nil
}

// OuterReferences returns the outer classes this class references through
// its InnerClasses attribute.
func (c *ClassFile) OuterReferences() []string {
	var outers []string
	for _, e := range c.InnerClasses {
		if e.Inner == c.Name && e.Outer != "" && e.Outer != c.Name {
			outers = append(outers, e.Outer)
		}
	}
	return outers
}

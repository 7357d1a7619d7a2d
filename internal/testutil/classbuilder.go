package testutil

import (
	"bytes"
	"encoding/binary"
)

// Access flag bits mirrored here so builders read naturally at call sites.
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccProtected = 0x0004
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccSuper     = 0x0020
	AccInterface = 0x0200
	AccAbstract  = 0x0400
	AccSynthetic = 0x1000
)

type memberSpec struct {
	flags      uint16
	name       string
	descriptor string
}

type refSpec struct {
	owner       string
	name        string
	descriptor  string
	onInterface bool
}

// ClassBuilder assembles real class file bytes for tests: a public class
// with the given members and constant-pool references, version 52 (Java 8).
type ClassBuilder struct {
	name       string
	superName  string
	flags      uint16
	major      uint16
	interfaces []string
	fields     []memberSpec
	methods    []memberSpec
	classRefs  []string
	methodRefs []refSpec
	fieldRefs  []refSpec
	outerClass string
}

// NewClass starts a public class extending java/lang/Object.
func NewClass(name string) *ClassBuilder {
	return &ClassBuilder{
		name:      name,
		superName: "java/lang/Object",
		flags:     AccPublic | AccSuper,
		major:     52,
	}
}

// Super sets the superclass.
func (b *ClassBuilder) Super(name string) *ClassBuilder {
	b.superName = name
	return b
}

// Flags replaces the class access flags.
func (b *ClassBuilder) Flags(flags uint16) *ClassBuilder {
	b.flags = flags
	return b
}

// AsInterface marks the class as an interface.
func (b *ClassBuilder) AsInterface() *ClassBuilder {
	b.flags = AccPublic | AccInterface | AccAbstract
	return b
}

// AsAbstract marks the class abstract.
func (b *ClassBuilder) AsAbstract() *ClassBuilder {
	b.flags |= AccAbstract
	return b
}

// Major overrides the class file major version.
func (b *ClassBuilder) Major(major uint16) *ClassBuilder {
	b.major = major
	return b
}

// Implements appends implemented interfaces.
func (b *ClassBuilder) Implements(names ...string) *ClassBuilder {
	b.interfaces = append(b.interfaces, names...)
	return b
}

// Method declares a method.
func (b *ClassBuilder) Method(flags uint16, name, descriptor string) *ClassBuilder {
	b.methods = append(b.methods, memberSpec{flags: flags, name: name, descriptor: descriptor})
	return b
}

// Field declares a field.
func (b *ClassBuilder) Field(flags uint16, name, descriptor string) *ClassBuilder {
	b.fields = append(b.fields, memberSpec{flags: flags, name: name, descriptor: descriptor})
	return b
}

// RefClass adds a Class constant referencing another class.
func (b *ClassBuilder) RefClass(name string) *ClassBuilder {
	b.classRefs = append(b.classRefs, name)
	return b
}

// RefMethod adds a Methodref constant.
func (b *ClassBuilder) RefMethod(owner, name, descriptor string) *ClassBuilder {
	b.methodRefs = append(b.methodRefs, refSpec{owner: owner, name: name, descriptor: descriptor})
	return b
}

// RefInterfaceMethod adds an InterfaceMethodref constant.
func (b *ClassBuilder) RefInterfaceMethod(owner, name, descriptor string) *ClassBuilder {
	b.methodRefs = append(b.methodRefs, refSpec{owner: owner, name: name, descriptor: descriptor, onInterface: true})
	return b
}

// RefField adds a Fieldref constant.
func (b *ClassBuilder) RefField(owner, name, descriptor string) *ClassBuilder {
	b.fieldRefs = append(b.fieldRefs, refSpec{owner: owner, name: name, descriptor: descriptor})
	return b
}

// EnclosedBy records the outer class in an InnerClasses attribute.
func (b *ClassBuilder) EnclosedBy(outer string) *ClassBuilder {
	b.outerClass = outer
	return b
}

// constant pool under construction
type poolBuilder struct {
	buf     bytes.Buffer
	count   uint16
	utf8    map[string]uint16
	classes map[string]uint16
	nats    map[string]uint16
}

func newPoolBuilder() *poolBuilder {
	return &poolBuilder{
		count:   1, // slot 0 is reserved
		utf8:    make(map[string]uint16),
		classes: make(map[string]uint16),
		nats:    make(map[string]uint16),
	}
}

func (p *poolBuilder) addUtf8(s string) uint16 {
	if idx, ok := p.utf8[s]; ok {
		return idx
	}
	p.buf.WriteByte(1) // Utf8
	binary.Write(&p.buf, binary.BigEndian, uint16(len(s)))
	p.buf.WriteString(s)
	idx := p.count
	p.count++
	p.utf8[s] = idx
	return idx
}

func (p *poolBuilder) addClass(name string) uint16 {
	if idx, ok := p.classes[name]; ok {
		return idx
	}
	nameIdx := p.addUtf8(name)
	p.buf.WriteByte(7) // Class
	binary.Write(&p.buf, binary.BigEndian, nameIdx)
	idx := p.count
	p.count++
	p.classes[name] = idx
	return idx
}

func (p *poolBuilder) addNameAndType(name, descriptor string) uint16 {
	key := name + ":" + descriptor
	if idx, ok := p.nats[key]; ok {
		return idx
	}
	nameIdx := p.addUtf8(name)
	descIdx := p.addUtf8(descriptor)
	p.buf.WriteByte(12) // NameAndType
	binary.Write(&p.buf, binary.BigEndian, nameIdx)
	binary.Write(&p.buf, binary.BigEndian, descIdx)
	idx := p.count
	p.count++
	p.nats[key] = idx
	return idx
}

func (p *poolBuilder) addRef(tag byte, classIdx, natIdx uint16) uint16 {
	p.buf.WriteByte(tag)
	binary.Write(&p.buf, binary.BigEndian, classIdx)
	binary.Write(&p.buf, binary.BigEndian, natIdx)
	idx := p.count
	p.count++
	return idx
}

// Build assembles the class file bytes.
func (b *ClassBuilder) Build() []byte {
	pool := newPoolBuilder()

	thisIdx := pool.addClass(b.name)
	superIdx := uint16(0)
	if b.superName != "" {
		superIdx = pool.addClass(b.superName)
	}

	ifaceIdxs := make([]uint16, 0, len(b.interfaces))
	for _, iface := range b.interfaces {
		ifaceIdxs = append(ifaceIdxs, pool.addClass(iface))
	}

	for _, name := range b.classRefs {
		pool.addClass(name)
	}
	for _, ref := range b.methodRefs {
		tag := byte(10) // Methodref
		if ref.onInterface {
			tag = 11 // InterfaceMethodref
		}
		pool.addRef(tag, pool.addClass(ref.owner), pool.addNameAndType(ref.name, ref.descriptor))
	}
	for _, ref := range b.fieldRefs {
		pool.addRef(9, pool.addClass(ref.owner), pool.addNameAndType(ref.name, ref.descriptor))
	}

	type memberIdx struct {
		flags    uint16
		nameIdx  uint16
		descIdx  uint16
	}
	fieldIdxs := make([]memberIdx, 0, len(b.fields))
	for _, f := range b.fields {
		fieldIdxs = append(fieldIdxs, memberIdx{f.flags, pool.addUtf8(f.name), pool.addUtf8(f.descriptor)})
	}
	methodIdxs := make([]memberIdx, 0, len(b.methods))
	for _, m := range b.methods {
		methodIdxs = append(methodIdxs, memberIdx{m.flags, pool.addUtf8(m.name), pool.addUtf8(m.descriptor)})
	}

	var innerAttrName, innerIdx, outerIdx uint16
	if b.outerClass != "" {
		innerAttrName = pool.addUtf8("InnerClasses")
		innerIdx = pool.addClass(b.name)
		outerIdx = pool.addClass(b.outerClass)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0)) // minor
	binary.Write(&out, binary.BigEndian, b.major)
	binary.Write(&out, binary.BigEndian, pool.count)
	out.Write(pool.buf.Bytes())
	binary.Write(&out, binary.BigEndian, b.flags)
	binary.Write(&out, binary.BigEndian, thisIdx)
	binary.Write(&out, binary.BigEndian, superIdx)
	binary.Write(&out, binary.BigEndian, uint16(len(ifaceIdxs)))
	for _, idx := range ifaceIdxs {
		binary.Write(&out, binary.BigEndian, idx)
	}

	writeMembers := func(members []memberIdx) {
		binary.Write(&out, binary.BigEndian, uint16(len(members)))
		for _, m := range members {
			binary.Write(&out, binary.BigEndian, m.flags)
			binary.Write(&out, binary.BigEndian, m.nameIdx)
			binary.Write(&out, binary.BigEndian, m.descIdx)
			binary.Write(&out, binary.BigEndian, uint16(0)) // attributes
		}
	}
	writeMembers(fieldIdxs)
	writeMembers(methodIdxs)

	if b.outerClass == "" {
		binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes
	} else {
		binary.Write(&out, binary.BigEndian, uint16(1))
		binary.Write(&out, binary.BigEndian, innerAttrName)
		binary.Write(&out, binary.BigEndian, uint32(2+8)) // count + one entry
		binary.Write(&out, binary.BigEndian, uint16(1))
		binary.Write(&out, binary.BigEndian, innerIdx)
		binary.Write(&out, binary.BigEndian, outerIdx)
		binary.Write(&out, binary.BigEndian, uint16(0)) // inner name
		binary.Write(&out, binary.BigEndian, uint16(0)) // inner flags
	}

	return out.Bytes()
}

package classfile

import (
	"encoding/binary"

	"linkcheck/internal/errors"
)

const classMagic = 0xCAFEBABE

// Class file major versions: 45 is Java 1.1, 69 is Java 25.
const (
	minSupportedMajor = 45
	maxSupportedMajor = 69
)

const innerClassesAttribute = "InnerClasses"

// Parse parses the binary class file format. It returns
// MALFORMED_CLASS_FILE for truncated or inconsistent input and
// UNSUPPORTED_CLASS_VERSION for class files newer than the reader knows.
func Parse(data []byte) (*ClassFile, error) {
	r := &byteReader{data: data}

	if magic := r.u4(); magic != classMagic {
		if r.err != nil {
			return nil, malformed("truncated header", r.err)
		}
		return nil, malformed("bad magic", nil)
	}

	minor := r.u2()
	major := r.u2()
	if r.err != nil {
		return nil, malformed("truncated version", r.err)
	}
	if major > maxSupportedMajor {
		return nil, errors.Newf(errors.UnsupportedClassVersion,
			"class file major version %d exceeds supported %d", major, maxSupportedMajor)
	}
	if major < minSupportedMajor {
		return nil, malformed("implausible class file version", nil)
	}

	pool, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}

	flags := AccessFlags(r.u2())
	thisIndex := r.u2()
	superIndex := r.u2()
	if r.err != nil {
		return nil, malformed("truncated class declaration", r.err)
	}

	name, ok := pool.classNameAt(thisIndex)
	if !ok {
		return nil, malformed("this_class is not a class constant", nil)
	}

	superName := ""
	if superIndex != 0 {
		superName, ok = pool.classNameAt(superIndex)
		if !ok {
			return nil, malformed("super_class is not a class constant", nil)
		}
	}

	interfaceCount := int(r.u2())
	interfaces := make([]string, 0, interfaceCount)
	for i := 0; i < interfaceCount; i++ {
		ifaceName, ifaceOK := pool.classNameAt(r.u2())
		if r.err != nil {
			return nil, malformed("truncated interface list", r.err)
		}
		if !ifaceOK {
			return nil, malformed("interface is not a class constant", nil)
		}
		interfaces = append(interfaces, ifaceName)
	}

	fields, err := parseMembers(r, pool, "field")
	if err != nil {
		return nil, err
	}
	methods, err := parseMembers(r, pool, "method")
	if err != nil {
		return nil, err
	}

	inner, err := parseClassAttributes(r, pool)
	if err != nil {
		return nil, err
	}

	return &ClassFile{
		Name:         name,
		MinorVersion: minor,
		MajorVersion: major,
		Flags:        flags,
		SuperName:    superName,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		InnerClasses: inner,
		pool:         pool,
	}, nil
}

func malformed(msg string, cause error) error {
	return errors.New(errors.MalformedClassFile, msg, cause)
}

func parseConstantPool(r *byteReader) (*ConstantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, malformed("truncated constant pool count", r.err)
	}
	if count == 0 {
		return nil, malformed("constant pool count is zero", nil)
	}

	entries := make([]poolEntry, count)
	for i := 1; i < count; i++ {
		tag := r.u1()
		if r.err != nil {
			return nil, malformed("truncated constant pool", r.err)
		}

		switch tag {
		case tagUtf8:
			length := int(r.u2())
			entries[i] = poolEntry{tag: tag, utf8: string(r.bytes(length))}
		case tagInteger, tagFloat:
			r.skip(4)
			entries[i] = poolEntry{tag: tag}
		case tagLong, tagDouble:
			r.skip(8)
			entries[i] = poolEntry{tag: tag}
			// Longs and doubles take two pool slots.
			i++
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			entries[i] = poolEntry{tag: tag, index1: r.u2()}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType,
			tagDynamic, tagInvokeDynamic:
			entries[i] = poolEntry{tag: tag, index1: r.u2(), index2: r.u2()}
		case tagMethodHandle:
			r.skip(1)
			entries[i] = poolEntry{tag: tag, index1: r.u2()}
		default:
			return nil, errors.Newf(errors.MalformedClassFile,
				"unknown constant pool tag %d at index %d", tag, i)
		}
		if r.err != nil {
			return nil, malformed("truncated constant pool", r.err)
		}
	}

	return &ConstantPool{entries: entries}, nil
}

func parseMembers(r *byteReader, pool *ConstantPool, kind string) ([]Member, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, malformed("truncated "+kind+" count", r.err)
	}

	members := make([]Member, 0, count)
	for i := 0; i < count; i++ {
		flags := AccessFlags(r.u2())
		name, nameOK := pool.utf8At(r.u2())
		descriptor, descOK := pool.utf8At(r.u2())
		if r.err != nil {
			return nil, malformed("truncated "+kind, r.err)
		}
		if !nameOK || !descOK {
			return nil, malformed(kind+" name or descriptor is not Utf8", nil)
		}

		if err := skipAttributes(r); err != nil {
			return nil, err
		}
		members = append(members, Member{Name: name, Descriptor: descriptor, Flags: flags})
	}
	return members, nil
}

// skipAttributes consumes a member attribute table. Attribute contents are
// not interpreted; their constant pool references were already captured when
// the pool was parsed.
func skipAttributes(r *byteReader) error {
	count := int(r.u2())
	for i := 0; i < count; i++ {
		r.skip(2) // attribute name index
		length := int(r.u4())
		r.skip(length)
		if r.err != nil {
			return malformed("truncated attribute", r.err)
		}
	}
	if r.err != nil {
		return malformed("truncated attribute table", r.err)
	}
	return nil
}

// parseClassAttributes reads the class-level attribute table, interpreting
// only InnerClasses.
func parseClassAttributes(r *byteReader, pool *ConstantPool) ([]InnerClassEntry, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, malformed("truncated class attribute count", r.err)
	}

	var inner []InnerClassEntry
	for i := 0; i < count; i++ {
		attrName, _ := pool.utf8At(r.u2())
		length := int(r.u4())
		if r.err != nil {
			return nil, malformed("truncated class attribute", r.err)
		}

		if attrName != innerClassesAttribute {
			r.skip(length)
			if r.err != nil {
				return nil, malformed("truncated class attribute", r.err)
			}
			continue
		}

		entryCount := int(r.u2())
		for j := 0; j < entryCount; j++ {
			innerIndex := r.u2()
			outerIndex := r.u2()
			r.skip(4) // inner_name_index, inner_class_access_flags
			if r.err != nil {
				return nil, malformed("truncated InnerClasses attribute", r.err)
			}

			var e InnerClassEntry
			if innerIndex != 0 {
				e.Inner, _ = pool.classNameAt(innerIndex)
			}
			if outerIndex != 0 {
				e.Outer, _ = pool.classNameAt(outerIndex)
			}
			inner = append(inner, e)
		}
	}
	return inner, nil
}

// byteReader is a bounds-checked big-endian cursor. The first read past the
// end latches err; subsequent reads return zero.
type byteReader struct {
	data []byte
	pos  int
	err  error
}

var errTruncated = errors.Newf(errors.MalformedClassFile, "unexpected end of class file")

func (r *byteReader) has(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.err = errTruncated
		return false
	}
	return true
}

func (r *byteReader) u1() byte {
	if !r.has(1) {
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *byteReader) u2() uint16 {
	if !r.has(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *byteReader) u4() uint32 {
	if !r.has(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *byteReader) bytes(n int) []byte {
	if n < 0 {
		r.err = errTruncated
		return nil
	}
	if !r.has(n) {
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *byteReader) skip(n int) {
	if n < 0 {
		r.err = errTruncated
		return
	}
	if r.has(n) {
		r.pos += n
	}
}

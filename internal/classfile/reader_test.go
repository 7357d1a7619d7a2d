package classfile_test

import (
	"reflect"
	"sort"
	"testing"

	"linkcheck/internal/classfile"
	"linkcheck/internal/errors"
	"linkcheck/internal/testutil"
)

func TestParseBasics(t *testing.T) {
	data := testutil.NewClass("p/Widget").
		Super("p/Base").
		Implements("p/Drawable", "p/Closeable").
		Field(testutil.AccPrivate, "count", "I").
		Field(testutil.AccPublic|testutil.AccStatic, "NAME", "Ljava/lang/String;").
		Method(testutil.AccPublic, "draw", "()V").
		Method(testutil.AccProtected, "resize", "(II)Z").
		Build()

	cf, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cf.Name != "p/Widget" {
		t.Errorf("Name = %q", cf.Name)
	}
	if cf.SuperName != "p/Base" {
		t.Errorf("SuperName = %q", cf.SuperName)
	}
	if !reflect.DeepEqual(cf.Interfaces, []string{"p/Drawable", "p/Closeable"}) {
		t.Errorf("Interfaces = %v", cf.Interfaces)
	}
	if cf.BinaryName() != "p.Widget" || cf.PackageName() != "p" {
		t.Errorf("BinaryName/PackageName = %q/%q", cf.BinaryName(), cf.PackageName())
	}
	if !cf.Flags.IsPublic() || cf.Flags.IsInterface() {
		t.Errorf("Flags = %x", cf.Flags)
	}

	if m := cf.FindMethod("resize", "(II)Z"); m == nil || !m.Flags.IsProtected() {
		t.Errorf("FindMethod(resize) = %+v", m)
	}
	if cf.FindMethod("resize", "()Z") != nil {
		t.Errorf("FindMethod must require the exact descriptor")
	}
	if f := cf.FindField("count", "I"); f == nil || !f.Flags.IsPrivate() {
		t.Errorf("FindField(count) = %+v", f)
	}
}

func TestParseBadMagic(t *testing.T) {
	data := testutil.NewClass("p/A").Build()
	data[0] = 0xDE

	_, err := classfile.Parse(data)
	if !errors.HasCode(err, errors.MalformedClassFile) {
		t.Fatalf("expected MALFORMED_CLASS_FILE, got %v", err)
	}
}

func TestParseTruncated(t *testing.T) {
	data := testutil.NewClass("p/A").Method(testutil.AccPublic, "m", "()V").Build()

	for _, cut := range []int{3, 9, 20, len(data) / 2, len(data) - 1} {
		if _, err := classfile.Parse(data[:cut]); !errors.HasCode(err, errors.MalformedClassFile) {
			t.Errorf("cut at %d: expected MALFORMED_CLASS_FILE, got %v", cut, err)
		}
	}
}

func TestParseUnsupportedVersion(t *testing.T) {
	data := testutil.NewClass("p/A").Major(99).Build()
	_, err := classfile.Parse(data)
	if !errors.HasCode(err, errors.UnsupportedClassVersion) {
		t.Fatalf("expected UNSUPPORTED_CLASS_VERSION, got %v", err)
	}
}

func TestConstantPoolRefs(t *testing.T) {
	data := testutil.NewClass("p/A").
		RefClass("q/Helper").
		RefMethod("q/B", "foo", "(I)V").
		RefInterfaceMethod("q/Iface", "run", "()V").
		RefField("q/B", "limit", "J").
		Build()

	cf, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pool := cf.Pool()

	classes := pool.ClassNames()
	sort.Strings(classes)
	want := []string{"java/lang/Object", "p/A", "q/B", "q/Helper", "q/Iface"}
	if !reflect.DeepEqual(classes, want) {
		t.Errorf("ClassNames = %v, want %v", classes, want)
	}

	methods := pool.MethodRefs()
	if len(methods) != 2 {
		t.Fatalf("MethodRefs = %v", methods)
	}
	if methods[0] != (classfile.MethodRef{Owner: "q/B", Name: "foo", Descriptor: "(I)V"}) {
		t.Errorf("method ref = %+v", methods[0])
	}
	if !methods[1].OnInterface {
		t.Errorf("InterfaceMethodref must carry the interface marker")
	}

	fields := pool.FieldRefs()
	if len(fields) != 1 || fields[0] != (classfile.FieldRef{Owner: "q/B", Name: "limit", Descriptor: "J"}) {
		t.Errorf("FieldRefs = %v", fields)
	}
}

func TestParseInnerClasses(t *testing.T) {
	data := testutil.NewClass("p/Outer$Inner").EnclosedBy("p/Outer").Build()

	cf, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	outers := cf.OuterReferences()
	if !reflect.DeepEqual(outers, []string{"p/Outer"}) {
		t.Errorf("OuterReferences = %v", outers)
	}
}

// Parsing the same bytes twice yields the same name and descriptor sets.
func TestParseDeterministic(t *testing.T) {
	data := testutil.NewClass("p/A").
		RefMethod("q/B", "foo", "(I)V").
		Method(testutil.AccPublic, "m", "()V").
		Build()

	first, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !reflect.DeepEqual(first.Pool().ClassNames(), second.Pool().ClassNames()) {
		t.Errorf("ClassNames differ between parses")
	}
	if !reflect.DeepEqual(first.Pool().MethodRefs(), second.Pool().MethodRefs()) {
		t.Errorf("MethodRefs differ between parses")
	}
	if !reflect.DeepEqual(first.Methods, second.Methods) {
		t.Errorf("Methods differ between parses")
	}
}

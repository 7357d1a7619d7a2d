package linkage_test

import (
	"testing"

	"linkcheck/internal/archive"
	"linkcheck/internal/artifact"
	"linkcheck/internal/classpath"
	"linkcheck/internal/linkage"
	"linkcheck/internal/repository"
	"linkcheck/internal/symbols"
	"linkcheck/internal/testutil"
)

// jarSpec names a jar and its class files.
type jarSpec struct {
	name    string
	classes map[string][]byte
}

func buildRepo(t *testing.T, jars ...jarSpec) (*repository.Repository, []classpath.Entry, *archive.Manager) {
	t.Helper()
	dir := t.TempDir()

	manager, err := archive.NewManager(8, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })

	var entries []classpath.Entry
	for _, spec := range jars {
		entriesMap := make(map[string][]byte, len(spec.classes))
		for className, data := range spec.classes {
			entriesMap[testutil.ClassEntry(className)] = data
		}
		path := testutil.WriteJar(t, dir, spec.name+".jar", entriesMap)
		entries = append(entries, classpath.Entry{
			Artifact: artifact.New("g", spec.name, "1"),
			File:     path,
		})
	}

	repo, err := repository.New(manager, entries, 128, nil)
	if err != nil {
		t.Fatalf("repository.New: %v", err)
	}
	return repo, entries, manager
}

// Missing method: q.B defines foo()V, the caller wants foo(I)V.
func TestMethodSymbolNotFound(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "a", classes: map[string][]byte{
			"p/A": testutil.NewClass("p/A").RefMethod("q/B", "foo", "(I)V").Build(),
		}},
		jarSpec{name: "b", classes: map[string][]byte{
			"q/B": testutil.NewClass("q/B").Method(testutil.AccPublic, "foo", "()V").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/A", Entry: entries[0]}
	p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/B", Name: "foo", Descriptor: "(I)V"})

	if p == nil {
		t.Fatal("expected a problem")
	}
	if p.Kind != linkage.KindSymbolNotFound {
		t.Errorf("Kind = %s", p.Kind)
	}
	if p.Target == nil || p.Target.Name != "q/B" {
		t.Errorf("Target = %+v", p.Target)
	}
	if p.Source.Name != "p/A" {
		t.Errorf("Source = %+v", p.Source)
	}
	if p.Cause != nil {
		t.Errorf("cause must be unset before attribution")
	}

	// The declared descriptor resolves fine.
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/B", Name: "foo", Descriptor: "()V"}); p != nil {
		t.Errorf("exact match reported a problem: %v", p)
	}
}

// Class not found: target is nil.
func TestClassNotFound(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "a", classes: map[string][]byte{
			"p/A": testutil.NewClass("p/A").RefClass("q/B").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/A", Entry: entries[0]}
	p := checker.CheckClassRef(source, symbols.ClassRef{Symbol: symbols.Class{Owner: "q/B"}})

	if p == nil || p.Kind != linkage.KindClassNotFound {
		t.Fatalf("problem = %+v", p)
	}
	if p.Target != nil {
		t.Errorf("ClassNotFound must have a nil target")
	}
}

// Abstract method with no implementation in the concrete receiver.
func TestAbstractMethodNotImplemented(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"p/Base": testutil.NewClass("p/Base").AsAbstract().
				Method(testutil.AccPublic|testutil.AccAbstract, "foo", "()V").Build(),
			"p/Concrete": testutil.NewClass("p/Concrete").Super("p/Base").Build(),
			"p/Caller":   testutil.NewClass("p/Caller").RefMethod("p/Concrete", "foo", "()V").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/Caller", Entry: entries[0]}
	p := checker.CheckMethodRef(source, symbols.Method{Owner: "p/Concrete", Name: "foo", Descriptor: "()V"})

	if p == nil || p.Kind != linkage.KindAbstractMethod {
		t.Fatalf("problem = %+v", p)
	}
	if p.Target == nil || p.Target.Name != "p/Concrete" {
		t.Errorf("Target = %+v", p.Target)
	}
}

// An override in the concrete class silences the abstract-method problem.
func TestAbstractMethodOverridden(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"p/Base": testutil.NewClass("p/Base").AsAbstract().
				Method(testutil.AccPublic|testutil.AccAbstract, "foo", "()V").Build(),
			"p/Concrete": testutil.NewClass("p/Concrete").Super("p/Base").
				Method(testutil.AccPublic, "foo", "()V").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/Caller", Entry: entries[0]}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "p/Concrete", Name: "foo", Descriptor: "()V"}); p != nil {
		t.Errorf("overridden abstract method reported: %+v", p)
	}
}

// Interface-method reference against a class owner.
func TestIncompatibleClassChange(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/C": testutil.NewClass("q/C").Method(testutil.AccPublic, "m", "()V").Build(),
			"q/I": testutil.NewClass("q/I").AsInterface().
				Method(testutil.AccPublic|testutil.AccAbstract, "m", "()V").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/A", Entry: entries[0]}

	p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/C", Name: "m", Descriptor: "()V", OnInterface: true})
	if p == nil || p.Kind != linkage.KindIncompatibleClassChange {
		t.Fatalf("interface ref on class: %+v", p)
	}

	p = checker.CheckMethodRef(source, symbols.Method{Owner: "q/I", Name: "m", Descriptor: "()V"})
	if p == nil || p.Kind != linkage.KindIncompatibleClassChange {
		t.Fatalf("class ref on interface: %+v", p)
	}
}

// Protected field accessed from an unrelated package.
func TestInaccessibleProtectedField(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "a", classes: map[string][]byte{
			"p/A": testutil.NewClass("p/A").RefField("q/B", "limit", "I").Build(),
		}},
		jarSpec{name: "b", classes: map[string][]byte{
			"q/B":   testutil.NewClass("q/B").Field(testutil.AccProtected, "limit", "I").Build(),
			"q/Sib": testutil.NewClass("q/Sib").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)

	outside := linkage.SourceClass{Name: "p/A", Entry: entries[0]}
	p := checker.CheckFieldRef(outside, symbols.Field{Owner: "q/B", Name: "limit", Descriptor: "I"})
	if p == nil || p.Kind != linkage.KindInaccessibleMember {
		t.Fatalf("problem = %+v", p)
	}

	// Same package sees the protected field.
	samePkg := linkage.SourceClass{Name: "q/Sib", Entry: entries[1]}
	if p := checker.CheckFieldRef(samePkg, symbols.Field{Owner: "q/B", Name: "limit", Descriptor: "I"}); p != nil {
		t.Errorf("same-package access reported: %+v", p)
	}
}

// A subclass in another package can use a protected member.
func TestProtectedAccessibleToSubclass(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/B":   testutil.NewClass("q/B").Method(testutil.AccProtected, "tick", "()V").Build(),
			"p/Sub": testutil.NewClass("p/Sub").Super("q/B").RefMethod("q/B", "tick", "()V").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/Sub", Entry: entries[0]}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/B", Name: "tick", Descriptor: "()V"}); p != nil {
		t.Errorf("subclass access reported: %+v", p)
	}
}

// Private members resolve only inside the declaring class.
func TestPrivateMember(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/B": testutil.NewClass("q/B").Method(testutil.AccPrivate, "secret", "()V").Build(),
			"q/A": testutil.NewClass("q/A").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)

	self := linkage.SourceClass{Name: "q/B", Entry: entries[0]}
	if p := checker.CheckMethodRef(self, symbols.Method{Owner: "q/B", Name: "secret", Descriptor: "()V"}); p != nil {
		t.Errorf("own private method reported: %+v", p)
	}

	samePkg := linkage.SourceClass{Name: "q/A", Entry: entries[0]}
	p := checker.CheckMethodRef(samePkg, symbols.Method{Owner: "q/B", Name: "secret", Descriptor: "()V"})
	if p == nil || p.Kind != linkage.KindInaccessibleMember {
		t.Fatalf("problem = %+v", p)
	}
}

// Method inherited through the superclass chain resolves.
func TestMethodInherited(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/Base": testutil.NewClass("q/Base").Method(testutil.AccPublic, "run", "()V").Build(),
			"q/Mid":  testutil.NewClass("q/Mid").Super("q/Base").Build(),
			"q/Leaf": testutil.NewClass("q/Leaf").Super("q/Mid").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/A", Entry: entries[0]}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/Leaf", Name: "run", Descriptor: "()V"}); p != nil {
		t.Errorf("inherited method reported: %+v", p)
	}
}

// Interface references walk superinterfaces breadth-first.
func TestInterfaceMethodThroughSuperinterface(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/Top": testutil.NewClass("q/Top").AsInterface().
				Method(testutil.AccPublic|testutil.AccAbstract, "run", "()V").Build(),
			"q/Sub": testutil.NewClass("q/Sub").AsInterface().Implements("q/Top").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/A", Entry: entries[0]}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/Sub", Name: "run", Descriptor: "()V", OnInterface: true}); p != nil {
		t.Errorf("superinterface method reported: %+v", p)
	}

	p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/Sub", Name: "gone", Descriptor: "()V", OnInterface: true})
	if p == nil || p.Kind != linkage.KindSymbolNotFound {
		t.Fatalf("missing interface method: %+v", p)
	}
}

// Diamond interface hierarchies resolve through the shared superinterface.
func TestDiamondInterfaceHierarchy(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/Top": testutil.NewClass("q/Top").AsInterface().
				Method(testutil.AccPublic|testutil.AccAbstract, "run", "()V").Build(),
			"q/Left":  testutil.NewClass("q/Left").AsInterface().Implements("q/Top").Build(),
			"q/Right": testutil.NewClass("q/Right").AsInterface().Implements("q/Top").Build(),
			"q/Both":  testutil.NewClass("q/Both").AsInterface().Implements("q/Left", "q/Right").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/A", Entry: entries[0]}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/Both", Name: "run", Descriptor: "()V", OnInterface: true}); p != nil {
		t.Errorf("diamond hierarchy reported: %+v", p)
	}
}

// java.lang.Object methods resolve on any reference chain.
func TestObjectMethodResolves(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/B": testutil.NewClass("q/B").Build(),
			"q/I": testutil.NewClass("q/I").AsInterface().Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/A", Entry: entries[0]}

	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/B", Name: "toString", Descriptor: "()Ljava/lang/String;"}); p != nil {
		t.Errorf("Object method on class reported: %+v", p)
	}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/I", Name: "hashCode", Descriptor: "()I", OnInterface: true}); p != nil {
		t.Errorf("Object method on interface reported: %+v", p)
	}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/B", Name: "wait", Descriptor: "(J)V"}); p != nil {
		t.Errorf("Object wait(J)V reported: %+v", p)
	}
}

// References into runtime packages are always resolved.
func TestSystemClassAlwaysResolves(t *testing.T) {
	repo, entries, _ := buildRepo(t, jarSpec{name: "lib", classes: map[string][]byte{
		"p/A": testutil.NewClass("p/A").Build(),
	}})

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/A", Entry: entries[0]}

	if p := checker.CheckClassRef(source, symbols.ClassRef{Symbol: symbols.Class{Owner: "java/util/List"}}); p != nil {
		t.Errorf("system class reported: %+v", p)
	}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "java/util/List", Name: "of", Descriptor: "()Ljava/util/List;", OnInterface: true}); p != nil {
		t.Errorf("system method reported: %+v", p)
	}
}

// A superclass cycle terminates the walk without a problem report.
func TestSuperClassCycle(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/A": testutil.NewClass("q/A").Super("q/B").Build(),
			"q/B": testutil.NewClass("q/B").Super("q/A").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)
	source := linkage.SourceClass{Name: "p/C", Entry: entries[0]}
	if p := checker.CheckMethodRef(source, symbols.Method{Owner: "q/A", Name: "m", Descriptor: "()V"}); p != nil {
		t.Errorf("cycle must not yield a reference problem: %+v", p)
	}
}

// Package-private class from another package.
func TestInaccessibleClass(t *testing.T) {
	repo, entries, _ := buildRepo(t,
		jarSpec{name: "lib", classes: map[string][]byte{
			"q/Hidden": testutil.NewClass("q/Hidden").Flags(testutil.AccSuper).Build(),
			"q/Friend": testutil.NewClass("q/Friend").Build(),
		}},
	)

	checker := linkage.NewChecker(repo)

	outside := linkage.SourceClass{Name: "p/A", Entry: entries[0]}
	p := checker.CheckClassRef(outside, symbols.ClassRef{Symbol: symbols.Class{Owner: "q/Hidden"}})
	if p == nil || p.Kind != linkage.KindInaccessibleClass {
		t.Fatalf("problem = %+v", p)
	}

	inside := linkage.SourceClass{Name: "q/Friend", Entry: entries[0]}
	if p := checker.CheckClassRef(inside, symbols.ClassRef{Symbol: symbols.Class{Owner: "q/Hidden"}}); p != nil {
		t.Errorf("same-package access reported: %+v", p)
	}
}

package repository_test

import (
	"testing"

	"linkcheck/internal/archive"
	"linkcheck/internal/artifact"
	"linkcheck/internal/classpath"
	"linkcheck/internal/repository"
	"linkcheck/internal/testutil"
)

func buildRepo(t *testing.T, cacheSize int, jars ...map[string][]byte) (*repository.Repository, []classpath.Entry) {
	t.Helper()
	dir := t.TempDir()

	manager, err := archive.NewManager(8, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })

	var entries []classpath.Entry
	for i, entriesMap := range jars {
		name := string(rune('a'+i)) + ".jar"
		path := testutil.WriteJar(t, dir, name, entriesMap)
		entries = append(entries, classpath.Entry{
			Artifact: artifact.New("g", string(rune('a'+i)), "1"),
			File:     path,
		})
	}

	repo, err := repository.New(manager, entries, cacheSize, nil)
	if err != nil {
		t.Fatalf("repository.New: %v", err)
	}
	return repo, entries
}

func TestFindClassFirstMatch(t *testing.T) {
	repo, entries := buildRepo(t, 16,
		map[string][]byte{
			"p/A.class":      testutil.NewClass("p/A").Method(testutil.AccPublic, "first", "()V").Build(),
			"p/Unique.class": testutil.NewClass("p/Unique").Build(),
		},
		map[string][]byte{
			"p/A.class": testutil.NewClass("p/A").Method(testutil.AccPublic, "second", "()V").Build(),
		},
	)

	loc, ok, err := repo.FindClass("p/A")
	if err != nil || !ok {
		t.Fatalf("FindClass: ok=%v err=%v", ok, err)
	}
	if loc.Entry != entries[0] {
		t.Errorf("first-match entry = %v, want %v", loc.Entry, entries[0])
	}
	if loc.Class.FindMethod("first", "()V") == nil {
		t.Errorf("resolved the shadowed definition")
	}

	shadows := repo.ShadowEntries("p/A")
	if len(shadows) != 2 || shadows[1] != entries[1] {
		t.Errorf("ShadowEntries = %v", shadows)
	}

	if _, ok, _ := repo.FindClass("p/Nope"); ok {
		t.Errorf("FindClass of unknown name must report not found")
	}
}

func TestFindInShadow(t *testing.T) {
	repo, entries := buildRepo(t, 16,
		map[string][]byte{"p/A.class": testutil.NewClass("p/A").Build()},
		map[string][]byte{"p/A.class": testutil.NewClass("p/A").Method(testutil.AccPublic, "extra", "()V").Build()},
	)

	cf, err := repo.FindIn(entries[1], "p/A")
	if err != nil {
		t.Fatalf("FindIn: %v", err)
	}
	if cf.FindMethod("extra", "()V") == nil {
		t.Errorf("FindIn did not parse the shadow definition")
	}
}

func TestCacheEvictionReparses(t *testing.T) {
	repo, _ := buildRepo(t, 1,
		map[string][]byte{
			"p/A.class": testutil.NewClass("p/A").Build(),
			"p/B.class": testutil.NewClass("p/B").Build(),
		},
	)

	for round := 0; round < 3; round++ {
		for _, name := range []string{"p/A", "p/B"} {
			loc, ok, err := repo.FindClass(name)
			if err != nil || !ok {
				t.Fatalf("round %d FindClass(%s): ok=%v err=%v", round, name, ok, err)
			}
			if loc.Class.Name != name {
				t.Errorf("parsed wrong class: %s", loc.Class.Name)
			}
		}
	}
}

func TestClassNamesIn(t *testing.T) {
	repo, entries := buildRepo(t, 16,
		map[string][]byte{
			"p/A.class": testutil.NewClass("p/A").Build(),
			"p/B.class": testutil.NewClass("p/B").Build(),
		},
		map[string][]byte{
			"p/B.class": testutil.NewClass("p/B").Build(), // shadowed
			"p/C.class": testutil.NewClass("p/C").Build(),
		},
	)

	first := repo.ClassNamesIn(entries[0])
	if len(first) != 2 {
		t.Errorf("ClassNamesIn(first) = %v", first)
	}
	second := repo.ClassNamesIn(entries[1])
	if len(second) != 1 || second[0] != "p/C" {
		t.Errorf("shadowed class must not count for the second entry: %v", second)
	}
}

func TestIsSystemClass(t *testing.T) {
	system := []string{"java/lang/String", "javax/annotation/Nullable", "jdk/internal/misc/Unsafe", "sun/misc/Unsafe", "com/sun/tools/javac/Main", "org/w3c/dom/Node"}
	for _, name := range system {
		if !repository.IsSystemClass(name) {
			t.Errorf("IsSystemClass(%q) = false", name)
		}
	}
	user := []string{"com/google/common/collect/ImmutableList", "org/apache/commons/io/IOUtils", "javafake/X"}
	for _, name := range user {
		if repository.IsSystemClass(name) {
			t.Errorf("IsSystemClass(%q) = true", name)
		}
	}
}

package classpath

import (
	"strings"
	"testing"

	"linkcheck/internal/artifact"
	"linkcheck/internal/depgraph"
)

func mustParse(t *testing.T, coords string) artifact.Artifact {
	t.Helper()
	a, err := artifact.Parse(coords)
	if err != nil {
		t.Fatalf("Parse(%q): %v", coords, err)
	}
	return a
}

func node(t *testing.T, coords string, via ...string) depgraph.Node {
	t.Helper()
	a := mustParse(t, coords)
	var path depgraph.Path
	if len(via) == 0 {
		path = depgraph.NewPath(a)
	} else {
		path = depgraph.NewPath(mustParse(t, via[0]))
		for _, step := range via[1:] {
			path = path.Append(depgraph.Step{Artifact: mustParse(t, step), Scope: depgraph.ScopeCompile})
		}
		path = path.Append(depgraph.Step{Artifact: a, Scope: depgraph.ScopeCompile})
	}
	return depgraph.Node{Artifact: a, Path: path}
}

func TestBuildFirstEncounteredWins(t *testing.T) {
	locator := MapLocator{
		"g:root:1": "/tmp/root.jar",
		"g:x:1.0":  "/tmp/x1.jar",
		"g:lib:1":  "/tmp/lib.jar",
	}
	nodes := []depgraph.Node{
		node(t, "g:root:1"),
		node(t, "g:x:1.0", "g:root:1"),
		node(t, "g:lib:1", "g:root:1"),
		node(t, "g:x:2.0", "g:root:1", "g:lib:1"),
	}

	result, err := NewBuilder(locator, nil).Build(nodes, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	entries := result.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[1].Artifact.String() != "g:x:1.0" {
		t.Errorf("selected %s, want g:x:1.0", entries[1].Artifact)
	}

	alts := result.Unselected(mustParse(t, "g:x:1.0"))
	if len(alts) != 1 {
		t.Fatalf("got %d alternatives, want 1", len(alts))
	}
	if alts[0].Candidate.String() != "g:x:2.0" {
		t.Errorf("unselected candidate = %s", alts[0].Candidate)
	}
	if !strings.Contains(alts[0].CandidatePath.String(), "g:lib:1") {
		t.Errorf("candidate path = %q", alts[0].CandidatePath)
	}
	if alts[0].Selected.String() != "g:x:1.0" {
		t.Errorf("alternative records selected = %s", alts[0].Selected)
	}
}

func TestBuildMissingArchive(t *testing.T) {
	locator := MapLocator{"g:root:1": "/tmp/root.jar"}
	nodes := []depgraph.Node{
		node(t, "g:root:1"),
		node(t, "g:gone:1", "g:root:1"),
	}

	result, err := NewBuilder(locator, nil).Build(nodes, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Entries()) != 1 {
		t.Errorf("missing artifact must not produce an entry")
	}
	if len(result.Missing()) != 1 || result.Missing()[0].String() != "g:gone:1" {
		t.Errorf("Missing() = %v", result.Missing())
	}
}

func TestBuildExtraFilesAppended(t *testing.T) {
	locator := MapLocator{"g:root:1": "/tmp/root.jar"}
	nodes := []depgraph.Node{node(t, "g:root:1")}

	result, err := NewBuilder(locator, nil).Build(nodes, nil, []string{"/tmp/extra.jar", "/tmp/root.jar"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	entries := result.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (duplicate file deduplicated)", len(entries))
	}
	last := entries[1]
	if !last.Artifact.IsZero() || last.File != "/tmp/extra.jar" {
		t.Errorf("extra entry = %+v", last)
	}
	if last.String() != "extra.jar" {
		t.Errorf("extra entry renders as %q", last.String())
	}
}

func TestBuildSkipsNonJarArtifacts(t *testing.T) {
	pom := mustParse(t, "g:meta:1")
	pom.Extension = "pom"
	nodes := []depgraph.Node{{Artifact: pom, Path: depgraph.NewPath(pom)}}

	result, err := NewBuilder(MapLocator{}, nil).Build(nodes, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Entries()) != 0 {
		t.Errorf("pom artifact must not land on the classpath")
	}
}

func TestSelectedPath(t *testing.T) {
	locator := MapLocator{"g:a:1": "/tmp/a.jar"}
	nodes := []depgraph.Node{node(t, "g:a:1", "g:root:1")}

	result, err := NewBuilder(locator, nil).Build(nodes, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := result.SelectedPath(mustParse(t, "g:a:1"))
	if path.IsZero() {
		t.Fatalf("SelectedPath returned zero path")
	}
	if path.Root().String() != "g:root:1" {
		t.Errorf("path root = %s", path.Root())
	}
	// Any version of the same module resolves to the same selected path.
	if result.SelectedPath(mustParse(t, "g:a:9")).IsZero() {
		t.Errorf("SelectedPath must key by module, not version")
	}
}

func TestFormatDependencyPaths(t *testing.T) {
	locator := MapLocator{"g:a:1": "/tmp/a.jar", "g:b:1": "/tmp/b.jar"}
	nodes := []depgraph.Node{
		node(t, "g:a:1", "g:root:1"),
		node(t, "g:b:1", "g:root:1", "g:a:1"),
	}
	result, err := NewBuilder(locator, nil).Build(nodes, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	out := result.FormatDependencyPaths(result.Entries())
	want := "g:a:1 is at:\n  g:root:1 / g:a:1 (compile)\ng:b:1 is at:\n  g:root:1 / g:a:1 (compile) / g:b:1 (compile)\n"
	if out != want {
		t.Errorf("FormatDependencyPaths:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

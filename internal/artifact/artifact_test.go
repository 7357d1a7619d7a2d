package artifact

import (
	"sort"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		coords  string
		want    Artifact
		wantErr bool
	}{
		{coords: "com.google.guava:guava:32.1.2-jre", want: Artifact{Group: "com.google.guava", Name: "guava", Version: "32.1.2-jre"}},
		{coords: "io.grpc:grpc-core:tests:1.57.2", want: Artifact{Group: "io.grpc", Name: "grpc-core", Classifier: "tests", Version: "1.57.2"}},
		{coords: "only:two", wantErr: true},
		{coords: "a:b:c:d:e", wantErr: true},
		{coords: "::1.0", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.coords)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", tt.coords, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.coords, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.coords, got, tt.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, coords := range []string{
		"com.google.guava:guava:32.1.2-jre",
		"io.grpc:grpc-core:tests:1.57.2",
	} {
		a, err := Parse(coords)
		if err != nil {
			t.Fatalf("Parse(%q): %v", coords, err)
		}
		if a.String() != coords {
			t.Errorf("String() = %q, want %q", a.String(), coords)
		}
	}
}

func TestModuleKey(t *testing.T) {
	a1 := New("com.example", "lib", "1.0")
	a2 := New("com.example", "lib", "2.0")
	if !a1.ModuleEqual(a2) {
		t.Errorf("artifacts differing only in version must be module-equal")
	}
	if a1.Key() != "com.example:lib" {
		t.Errorf("Key() = %q", a1.Key())
	}

	classified := Artifact{Group: "com.example", Name: "lib", Classifier: "tests", Version: "1.0"}
	if classified.ModuleEqual(a1) {
		t.Errorf("classifier must participate in the module key")
	}

	pom := Artifact{Group: "com.example", Name: "lib", Version: "1.0", Extension: "pom"}
	if pom.ModuleEqual(a1) {
		t.Errorf("non-jar extension must participate in the module key")
	}
}

func TestOrdering(t *testing.T) {
	artifacts := []Artifact{
		New("org.z", "lib", "1.0"),
		New("com.a", "lib", "2.0"),
		New("com.a", "lib", "1.0"),
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Less(artifacts[j]) })

	want := []string{"com.a:lib:1.0", "com.a:lib:2.0", "org.z:lib:1.0"}
	for i, a := range artifacts {
		if a.String() != want[i] {
			t.Errorf("position %d: got %s, want %s", i, a, want[i])
		}
	}
}

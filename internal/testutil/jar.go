package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// WriteJar writes a jar file containing the given entries (entry name to
// raw bytes) into dir and returns its path.
func WriteJar(t *testing.T, dir, name string, entries map[string][]byte) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for entryName, data := range entries {
		f, err := w.Create(entryName)
		if err != nil {
			t.Fatalf("Failed to create jar entry %s: %v", entryName, err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("Failed to write jar entry %s: %v", entryName, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finish jar: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write jar file: %v", err)
	}
	return path
}

// ClassEntry returns the jar entry name of an internal class name.
func ClassEntry(internalName string) string {
	return internalName + ".class"
}

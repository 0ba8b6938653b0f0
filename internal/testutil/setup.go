package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pigdbc/dat-conditional-updater/internal/codec"
	"github.com/pigdbc/dat-conditional-updater/internal/fixture"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
)

// ReferenceInputName is the file name SetupReferenceInput writes.
const ReferenceInputName = "data.dat"

// SetupReferenceInput writes the 5-record reference file to
// <t.TempDir()>/in/data.dat and returns the temp root and the file path.
//
// Example:
//
//	root, input := testutil.SetupReferenceInput(t)
//	out := filepath.Join(root, "out")
func SetupReferenceInput(t *testing.T) (root, input string) {
	t.Helper()
	data, err := fixture.Reference(format.DefaultSettings())
	if err != nil {
		t.Fatalf("Failed to build reference fixture: %v", err)
	}
	root = t.TempDir()
	input = filepath.Join(root, "in", ReferenceInputName)
	WriteInput(t, input, data)
	return root, input
}

// WriteInput writes data to path, creating parent directories.
// Calls t.Fatal if the write fails.
func WriteInput(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create input dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
}

// ResolvePath attempts to find a repository file by trying multiple path resolutions.
// This handles the fact that tests may be run from different working directories.
// Calls t.Skip if the file is not found.
func ResolvePath(t *testing.T, relativePath string) string {
	t.Helper()

	// Try paths in order of likelihood
	candidates := []string{
		relativePath,               // Direct path (from repo root)
		"../../" + relativePath,    // From package two levels deep (e.g., internal/config/)
		"../../../" + relativePath, // From package three levels deep
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	t.Skipf("Test file not found at any candidate path starting from: %s", relativePath)
	return "" // unreachable
}

// Field decodes chars characters at the 1-based offset of record index in a
// file of size-byte records. Calls t.Fatal when the window is out of range
// or not cleanly decodable.
func Field(t *testing.T, data []byte, size, index, offset, chars int) string {
	t.Helper()
	start := index*size + offset - 1
	end := start + chars*codec.BytesPerChar
	if start < 0 || end > len(data) {
		t.Fatalf("Field Byte%d of record %d outside %d-byte input", offset, index, len(data))
	}
	text, ok := codec.Decode(data[start:end])
	if !ok {
		t.Fatalf("Field Byte%d of record %d not decodable: % X", offset, index, data[start:end])
	}
	return text
}

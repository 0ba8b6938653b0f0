package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pigdbc/dat-conditional-updater/internal/fixture"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/testutil"
)

// testConfigPath returns the resolved path to a config file under testdata
func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return testutil.ResolvePath(t, filepath.Join("testdata", name))
}

// writeReferenceInput writes the reference fixture to <dir>/in/data.dat
func writeReferenceInput(t *testing.T, dir string) string {
	t.Helper()
	data, err := fixture.Reference(format.DefaultSettings())
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	path := filepath.Join(dir, "in", testutil.ReferenceInputName)
	testutil.WriteInput(t, path, data)
	return path
}

// resetFlags restores every global flag to its default
func resetFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	noColor = true
	debug = false

	runConfig = "config.ini"
	runOutDir = "out"
	runLogDir = "log"
	runDryRun = false
	runRetainDays = 0

	rulesConfig = "config.ini"

	fixtureRecordSize = format.DefaultRecordSize
	fixtureRandom = 0
	fixtureSeed = 0
	fixtureMatchPct = 0.3
	fixtureUnknownPct = 0
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	// Save original stdout
	origStdout := os.Stdout

	// Create a pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	// Redirect stdout to pipe
	os.Stdout = w

	// Drain concurrently so large reports cannot fill the pipe
	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		defer close(done)
		_, _ = buf.ReadFrom(r)
	}()

	// Run function
	fnErr := fn()

	// Close write end and restore stdout
	w.Close()
	os.Stdout = origStdout
	<-done
	r.Close()

	return buf.String(), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
	return result
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}

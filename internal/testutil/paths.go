package testutil

// Test configuration paths relative to the repository root.
// These constants should be used instead of hardcoding paths in test files.
const (
	// ConfigINI is the reference rule set: Rule-1, Rule-2 and Rule-3, which
	// has no updates and is dropped on load.
	ConfigINI = "testdata/config.ini"

	// ConfigYAML holds Rule-1 and Rule-2 in YAML form.
	ConfigYAML = "testdata/config.yaml"
)

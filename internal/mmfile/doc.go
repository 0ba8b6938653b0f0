// Package mmfile maps record files read-only into memory. The returned
// slice must not be written to and must not be used after the cleanup
// function runs.
package mmfile

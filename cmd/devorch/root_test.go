package main

import (
	"bytes"
	"testing"
)

// executeCommand runs the root command against an isolated data directory
// and returns the combined output.
func executeCommand(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))

	err := root.Execute()
	return buf.String(), err
}

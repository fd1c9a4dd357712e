package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--quiet"}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestCommands(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(execute(t, "version"), "triage version "))
	})

	t.Run("catalog validate", func(t *testing.T) {
		assert.Contains(t, execute(t, "catalog", "validate"), "Catalog is valid: 9 questions.")
	})

	t.Run("catalog graph", func(t *testing.T) {
		out := execute(t, "catalog", "graph")
		assert.Contains(t, out, "graph TD")
		assert.Contains(t, out, "q9_severity --> done")
	})

	t.Run("catalog show yaml", func(t *testing.T) {
		out := execute(t, "catalog", "show", "--format", "yaml")
		assert.Contains(t, out, "id: q6_associated")
		assert.Contains(t, out, "exclusive: true")
	})

	t.Run("session ls empty file store", func(t *testing.T) {
		assert.Contains(t, execute(t, "session", "ls", "--store", "file"), "No sessions found.")
	})
}

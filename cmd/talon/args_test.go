package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeArgs runs the root command with args and returns its output and error.
// It suppresses cobra's usage/error output so test output stays clean.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out strings.Builder
	root.SetOut(&out)
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	_, err := root.ExecuteC()

	return out.String(), err
}

// isolate keeps the host config file and environment out of a test.
func isolate(t *testing.T) string {
	t.Helper()

	for _, key := range []string{"DATABASE_URL", "SQLITE_PATH", "GENOME_BUILD", "DATASET", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	return filepath.Join(t.TempDir(), "missing.yaml")
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "annotate needs a reads file", args: []string{"annotate"}, wantErr: "requires at least 1 arg"},
		{name: "serve takes no args", args: []string{"serve", "extra"}, wantErr: "unknown command"},
		{name: "migrate takes no args", args: []string{"migrate", "extra"}, wantErr: "unknown command"},
		{name: "import needs --from", args: []string{"import", "--sqlite", "x.db"}, wantErr: "--from is required"},
		{name: "catalog runs takes no args", args: []string{"catalog", "runs", "x"}, wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := isolate(t)

			_, err := executeArgs(t, newRootCmd(), append([]string{"--config", cfgPath}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCommandNeedsCatalog(t *testing.T) {
	cfgPath := isolate(t)

	_, err := executeArgs(t, newRootCmd(), "--config", cfgPath, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL or SQLITE_PATH is required")
}

func TestAnnotateNeedsBuild(t *testing.T) {
	cfgPath := isolate(t)
	db := filepath.Join(t.TempDir(), "talon.db")

	_, err := executeArgs(t, newRootCmd(), "--config", cfgPath, "--sqlite", db, "annotate", "reads.sam")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENOME_BUILD is required")
}

func TestStartProfile_Unknown(t *testing.T) {
	_, err := startProfile("heap", t.TempDir())
	require.Error(t, err)

	stop, err := startProfile("", "")
	require.NoError(t, err)
	stop()
}

func TestVersionString(t *testing.T) {
	assert.True(t, strings.HasPrefix(versionString(), "talon version "))
}

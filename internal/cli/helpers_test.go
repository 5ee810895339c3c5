package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var testSpecsDir = filepath.Join("testdata", "specs")

// execute runs cmd with args and returns what it wrote to stdout.
// Stderr is captured separately so log lines never reach the JSON.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeSpecs writes content as the only CUE file of a fresh directory.
func writeSpecs(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "programs.cue"), []byte(content), 0644))
	return dir
}

// decodeData decodes a CLIResponse whose data is of type T.
func decodeData[T any](t *testing.T, out string) (string, T, *CLIError) {
	t.Helper()
	var resp struct {
		Status string    `json:"status"`
		Data   T         `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp.Status, resp.Data, resp.Error
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return GetExitCode(err)
}

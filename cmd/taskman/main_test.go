package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRealMainExitCodes(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{"TASKMAN_FILE", "TASKMAN_SCHEMA", "TASKMAN_LOCK_TIMEOUT_MS", "TASKMAN_HISTORY"} {
		t.Setenv(k, "")
	}
	chdir(t, t.TempDir())

	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr string
	}{
		{"success", []string{"version"}, 0, ""},
		{"unknown command", []string{"bogus"}, 1, "Error: unknown command: bogus"},
		{"bad id", []string{"delete", "x"}, 1, `Error: invalid task id "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := realMain(tt.args, &stderr); got != tt.want {
				t.Errorf("realMain(%q) = %d, want %d", tt.args, got, tt.want)
			}
			if tt.wantErr == "" && stderr.Len() != 0 {
				t.Errorf("stderr = %q, want empty", stderr.String())
			}
			if tt.wantErr != "" && !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

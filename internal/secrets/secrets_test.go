// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, SheetsAPIKey, "  AIzaTest  \n")
				writeFile(t, dir, RelayURL, "https://script.example/exec\n")
				return dir
			},
			want: map[string]string{
				SheetsAPIKey: "AIzaTest",
				RelayURL:     "https://script.example/exec",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files and dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, SheetsAPIKey, "key")
				writeFile(t, dir, "empty", "   \n\t ")
				writeFile(t, dir, ".hidden", "secret")
				return dir
			},
			want: map[string]string{SheetsAPIKey: "key"},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, RelayURL, "http://localhost:8090")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: map[string]string{RelayURL: "http://localhost:8090"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, SheetsAPIKey, "value123")

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	var warnings strings.Builder
	got, err := Load(dir, &warnings)
	require.NoError(t, err)
	assert.Equal(t, "value123", got[SheetsAPIKey])
	assert.NotContains(t, got, "bad-key")
	assert.Contains(t, warnings.String(), "warning: could not read secret bad-key")
}

func TestOr(t *testing.T) {
	s := map[string]string{RelayURL: "from-secrets"}
	assert.Equal(t, "explicit", Or(s, RelayURL, "explicit"))
	assert.Equal(t, "from-secrets", Or(s, RelayURL, ""))
	assert.Equal(t, "", Or(s, SheetsAPIKey, ""))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

package pgs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefs(t *testing.T, content string) (RangeConfig, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "login.defs")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return loadRangeConfig(path)
}

func TestLoadRangeConfig(t *testing.T) {
	rc, err := loadDefs(t, testLoginDefs)
	require.NoError(t, err)

	assert.Equal(t, 1000, rc.UIDMin)
	assert.Equal(t, 10000, rc.UIDMax)
	assert.Equal(t, 1000, rc.GIDMin)
	assert.Equal(t, 10000, rc.GIDMax)
	assert.Equal(t, 100000, rc.SubUIDMin)
	assert.Equal(t, 624288, rc.SubUIDMax)
	assert.Equal(t, 65536, rc.SubUIDCount)
	assert.Equal(t, 100000, rc.SubGIDMin)
	assert.Equal(t, 624288, rc.SubGIDMax)
	assert.Equal(t, 65536, rc.SubGIDCount)
}

func TestLoadRangeConfigIgnoresNoise(t *testing.T) {
	content := `# The uid window.
UID_MIN    1000
UID_MAX	9999999  trailing junk keeps this line from matching
UID_MAX 10000
GID_MIN 1000
GID_MAX 10000
SUB_UID_MIN 100000
SUB_UID_MAX 165536
SUB_UID_COUNT 65536
SUB_GID_MIN 100000
SUB_GID_MAX 165536
SUB_GID_COUNT 65536
UID_MIN 2000
`
	rc, err := loadDefs(t, content)
	require.NoError(t, err)

	// first occurrence wins
	assert.Equal(t, 1000, rc.UIDMin)
	assert.Equal(t, 10000, rc.UIDMax)
}

func TestLoadRangeConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		edit func(string) string
	}{
		{
			name: "missing key",
			edit: func(s string) string {
				return strings.Replace(s, "SUB_GID_COUNT", "SUB_GID_XXX", 1)
			},
		},
		{
			name: "uid window inverted",
			edit: func(s string) string {
				return strings.Replace(s, "UID_MAX 10000", "UID_MAX 100", 1)
			},
		},
		{
			name: "gid window inverted",
			edit: func(s string) string {
				return strings.Replace(s, "GID_MAX 10000", "GID_MAX 100", 1)
			},
		},
		{
			name: "subuid span not divisible by block size",
			edit: func(s string) string {
				return strings.Replace(s, "SUB_UID_MAX 624288", "SUB_UID_MAX 624289", 1)
			},
		},
		{
			name: "subgid block size zero",
			edit: func(s string) string {
				return strings.Replace(s, "SUB_GID_COUNT 65536", "SUB_GID_COUNT 0", 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadDefs(t, tt.edit(testLoginDefs))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestLoadRangeConfigMissingFile(t *testing.T) {
	_, err := loadRangeConfig(filepath.Join(t.TempDir(), "login.defs"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
}

package logtee

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/logtee/internal/splice"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, DefaultSuffix, cfg.Suffix)
	assert.Equal(t, int64(splice.DefaultScanWindow), cfg.ScanWindow)
	assert.Equal(t, int64(splice.DefaultMarkerWindow), cfg.MarkerWindow)
	assert.True(t, cfg.EchoLinks)
}

func TestLoadConfigFile_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(
		"dir: build/logs\nsuffix: \"\"\ntheme: orca\necho_links: false\nscan_window: 4096\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "build/logs", cfg.Dir)
	assert.Empty(t, cfg.Suffix)
	assert.Equal(t, "orca", cfg.Theme)
	assert.False(t, cfg.EchoLinks)
	assert.Equal(t, int64(4096), cfg.ScanWindow)
	assert.Equal(t, int64(splice.DefaultMarkerWindow), cfg.MarkerWindow)
}

func TestLoadConfigFile_Fails_When_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("dir: [unclosed"), 0o644))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	path := filepath.Join(root, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("theme: mono\n"), 0o644))

	assert.Equal(t, path, findConfigFile(nested))
}

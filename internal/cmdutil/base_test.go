package cmdutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestSetupReportDirsCreatesConfiguredPaths(t *testing.T) {
	t.Cleanup(viper.Reset)

	tempDir := t.TempDir()
	viper.Set("output.csvdir", filepath.Join(tempDir, "csv"))
	viper.Set("output.htmldir", filepath.Join(tempDir, "html"))
	viper.Set("output.exportdir", filepath.Join(tempDir, "export"))
	viper.Set("images.enabled", false)
	viper.Set("images.dir", filepath.Join(tempDir, "images"))

	dirs, err := SetupReportDirs()
	require.NoError(t, err)

	require.DirExists(t, dirs.CSV)
	require.DirExists(t, dirs.HTML)
	require.DirExists(t, dirs.Export)
	require.NoDirExists(t, dirs.Images, "image dir is only created when enabled")
}

func TestSetupReportDirsCreatesImageDirWhenEnabled(t *testing.T) {
	t.Cleanup(viper.Reset)

	tempDir := t.TempDir()
	viper.Set("output.csvdir", filepath.Join(tempDir, "csv"))
	viper.Set("output.htmldir", filepath.Join(tempDir, "html"))
	viper.Set("output.exportdir", filepath.Join(tempDir, "export"))
	viper.Set("images.enabled", true)
	viper.Set("images.dir", filepath.Join(tempDir, "images"))

	dirs, err := SetupReportDirs()
	require.NoError(t, err)
	require.DirExists(t, dirs.Images)
}

func TestSetupReportDirsMissingConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("output.csvdir", "")

	_, err := SetupReportDirs()
	require.Error(t, err)
}

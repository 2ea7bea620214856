package picklist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardshed/pickwick/internal/testutil"
)

func TestPrepareDownloadDirCreatesTemp(t *testing.T) {
	dir, cleanup, err := prepareDownloadDir("")
	require.NoError(t, err)
	require.DirExists(t, dir)
	require.NotNil(t, cleanup)

	cleanup()
	_, statErr := os.Stat(dir)
	require.True(t, os.IsNotExist(statErr), "temp dir should be removed after cleanup")
}

func TestPrepareDownloadDirCreatesCustom(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customDir := env.Path("custom-downloads")

	dir, cleanup, err := prepareDownloadDir(customDir)
	require.NoError(t, err)
	require.DirExists(t, dir)
	require.Nil(t, cleanup) // No cleanup for custom dirs
	require.Equal(t, customDir, dir)
}

func TestFindDownloadedExport(t *testing.T) {
	env := testutil.NewTestEnv(t)
	start := time.Now().Add(-time.Minute)

	env.WriteFileString("dl/shipstation_export.csv", "Order - Number\n")
	env.WriteFileString("dl/unrelated.csv", "x\n")

	path, err := findDownloadedExport(env.Path("dl"), start)
	require.NoError(t, err)
	require.Equal(t, env.Path("dl", "shipstation_export.csv"), path)
}

func TestFindDownloadedExportIgnoresStaleFiles(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("dl/shipstation_export.csv", "old\n")

	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(env.Path("dl", "shipstation_export.csv"), stale, stale))

	_, err := findDownloadedExport(env.Path("dl"), time.Now())
	require.Error(t, err)
}

func TestAutomateRequiresCredentials(t *testing.T) {
	_, err := AutomateShipStationExport(context.Background(), AutomationOptions{})
	require.Error(t, err)

	_, err = AutomateShipStationExport(context.Background(), AutomationOptions{Email: "seller@example.com"})
	require.Error(t, err)
}

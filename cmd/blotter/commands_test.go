package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `{
  "nickname": "cli",
  "assets": [{"sid": 24, "symbol": "AAPL", "tick-size": "0.01"}],
  "data-settings": {"path": "%DATA%"},
  "cancel-policy": {"policy": "eod"},
  "output": {"checkpoint-path": "%OUT%"},
  "orders": [{"time": "2024-01-02T14:31:00Z", "symbol": "AAPL", "amount": 100}]
}`

func writeFixtures(t *testing.T) (cfgPath, checkpointPath string) {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(data, []byte("symbol,time,open,high,low,close,volume\n"+
		"AAPL,2024-01-02T14:31:00Z,100,101,99,100,100000\n"+
		"AAPL,2024-01-02T14:32:00Z,100,101,99,100,100000\n"), 0o600))
	checkpointPath = filepath.Join(dir, "final.json")
	body := strings.NewReplacer("%DATA%", filepath.ToSlash(data), "%OUT%", filepath.ToSlash(checkpointPath)).Replace(testConfig)
	cfgPath = filepath.Join(dir, "cli.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))
	return cfgPath, checkpointPath
}

func TestRunValidateInspect(t *testing.T) {
	cfgPath, checkpointPath := writeFixtures(t)
	ctx := context.Background()

	require.NoError(t, newApp().RunContext(ctx, []string{"blotter", "validate", "--config", cfgPath}))
	require.NoError(t, newApp().RunContext(ctx, []string{"blotter", "run", "--config", cfgPath}))
	require.FileExists(t, checkpointPath)
	require.NoError(t, newApp().RunContext(ctx, []string{"blotter", "inspect", "--checkpoint", checkpointPath, "--summary"}))
	require.NoError(t, newApp().RunContext(ctx, []string{"blotter", "inspect", "--store", "file", "--target", filepath.Dir(checkpointPath), "--run-id", "final"}))
	require.NoError(t, newApp().RunContext(ctx, []string{"blotter", "presets"}))
}

func TestCommandErrors(t *testing.T) {
	cfgPath, _ := writeFixtures(t)
	ctx := context.Background()
	assert.ErrorIs(t, newApp().RunContext(ctx, []string{"blotter", "run"}), errMissingConfig)
	assert.ErrorIs(t, newApp().RunContext(ctx, []string{"blotter", "run", "-c", cfgPath, "-c", cfgPath, "--serve", "localhost:0"}), errServeMany)
	assert.ErrorIs(t, newApp().RunContext(ctx, []string{"blotter", "inspect"}), errNoCheckpoint)
	assert.Error(t, newApp().RunContext(ctx, []string{"blotter", "validate", "--config", filepath.Join(t.TempDir(), "nope.yaml")}))
}

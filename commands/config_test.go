package commands

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "privy.ini")
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, DefaultLogMaxFiles, cfg.Log.MaxLogFiles)
	require.Equal(t, DefaultLogMaxSizeMB, cfg.Log.MaxSizeMB)
	require.Empty(t, cfg.ComputerName)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
[log]
dir = C:\ProgramData\privy
max_size = 20
console = true

[privy]
computer_name = host.example.com
`)
	cfg := DefaultConfig()
	require.NoError(t, LoadConfigFile(&cfg, path))
	require.Equal(t, `C:\ProgramData\privy`, cfg.Log.LogDir)
	require.Equal(t, 20, cfg.Log.MaxSizeMB)
	require.Equal(t, DefaultLogMaxFiles, cfg.Log.MaxLogFiles, "unset keys keep their value")
	require.True(t, cfg.Log.Console)
	require.Equal(t, "host.example.com", cfg.ComputerName)
	require.Empty(t, cfg.MetricsFile)
}

func TestLoadConfigFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, LoadConfigFile(&cfg, filepath.Join(t.TempDir(), "missing.ini")))
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigEnvironment(t *testing.T) {
	path := writeConfig(t, "[privy]\ncomputer_name = from-file\nmetrics_file = file.prom\n")
	t.Setenv(EnvPrivyConfig, path)
	t.Setenv(EnvPrivyComputerName, "from-env")
	t.Setenv(EnvPrivyLogMaxFiles, "9")
	t.Setenv(EnvPrivyLogConsole, "no")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.ComputerName)
	require.Equal(t, "file.prom", cfg.MetricsFile)
	require.Equal(t, 9, cfg.Log.MaxLogFiles)
	require.False(t, cfg.Log.Console)

	t.Setenv(EnvPrivyLogMaxSizeMB, "big")
	_, err = LoadConfig("")
	require.Error(t, err)
}

func TestEnvToBool(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"", true, true},
		{"yes", false, true},
		{" TRUE ", false, true},
		{"0", true, false},
		{"maybe", true, true},
	}
	for _, test := range tests {
		t.Run(test.value, func(t *testing.T) {
			t.Setenv("PRIVY_TEST_BOOL", test.value)
			require.Equal(t, test.expected, envToBool("PRIVY_TEST_BOOL", test.def))
		})
	}
}

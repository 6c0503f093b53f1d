package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"

	"github.com/jet/privy/log"
)

const DefaultLogMaxSizeMB = 10
const DefaultLogMaxFiles = 5

const (
	EnvPrivyConfig       = "PRIVY_CONFIG"
	EnvPrivyLogDir       = "PRIVY_LOG_DIR"
	EnvPrivyLogName      = "PRIVY_LOG_NAME"
	EnvPrivyLogMaxSizeMB = "PRIVY_LOG_MAX_SIZE"
	EnvPrivyLogMaxFiles  = "PRIVY_LOG_MAX_FILES"
	EnvPrivyLogConsole   = "PRIVY_LOG_CONSOLE"
	EnvPrivyComputerName = "PRIVY_COMPUTER_NAME"
	EnvPrivyMetricsFile  = "PRIVY_METRICS_FILE"
)

// Config is the resolved configuration: defaults, then the config file,
// then the environment. Command line flags are applied last by the caller.
type Config struct {
	Log          log.LogConfig
	ComputerName string
	MetricsFile  string
}

func DefaultConfig() Config {
	return Config{
		Log: log.LogConfig{
			MaxLogFiles: DefaultLogMaxFiles,
			MaxSizeMB:   DefaultLogMaxSizeMB,
		},
	}
}

// LoadConfigFile reads an INI file into cfg.
// A file that does not exist leaves cfg unchanged.
//
//	[log]
//	dir = C:\ProgramData\privy
//	name = privy.log
//	max_size = 10
//	max_files = 5
//	console = true
//
//	[privy]
//	computer_name = host.example.com
//	metrics_file = C:\metrics\privy.prom
func LoadConfigFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return errors.Wrapf(err, "unable to load config file %s", path)
	}
	sec := f.Section("log")
	cfg.Log.LogDir = sec.Key("dir").MustString(cfg.Log.LogDir)
	cfg.Log.LogName = sec.Key("name").MustString(cfg.Log.LogName)
	cfg.Log.MaxSizeMB = sec.Key("max_size").MustInt(cfg.Log.MaxSizeMB)
	cfg.Log.MaxLogFiles = sec.Key("max_files").MustInt(cfg.Log.MaxLogFiles)
	cfg.Log.Console = sec.Key("console").MustBool(cfg.Log.Console)

	sec = f.Section("privy")
	cfg.ComputerName = sec.Key("computer_name").MustString(cfg.ComputerName)
	cfg.MetricsFile = sec.Key("metrics_file").MustString(cfg.MetricsFile)
	return nil
}

// ApplyEnvironment overrides cfg with the PRIVY_* environment variables
func ApplyEnvironment(cfg *Config) error {
	cfg.Log.LogDir = envStr(cfg.Log.LogDir, EnvPrivyLogDir)
	cfg.Log.LogName = envStr(cfg.Log.LogName, EnvPrivyLogName)
	sz, err := envToInt(int64(cfg.Log.MaxSizeMB), EnvPrivyLogMaxSizeMB)
	if err != nil {
		return err
	}
	cfg.Log.MaxSizeMB = int(sz)
	n, err := envToInt(int64(cfg.Log.MaxLogFiles), EnvPrivyLogMaxFiles)
	if err != nil {
		return err
	}
	cfg.Log.MaxLogFiles = int(n)
	cfg.Log.Console = envToBool(EnvPrivyLogConsole, cfg.Log.Console)
	cfg.ComputerName = envStr(cfg.ComputerName, EnvPrivyComputerName)
	cfg.MetricsFile = envStr(cfg.MetricsFile, EnvPrivyMetricsFile)
	return nil
}

// LoadConfig resolves the configuration from path (or PRIVY_CONFIG when
// path is empty) and the environment
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(EnvPrivyConfig)
	}
	if err := LoadConfigFile(&cfg, path); err != nil {
		return cfg, err
	}
	return cfg, ApplyEnvironment(&cfg)
}

func envToBool(env string, def bool) bool {
	if env := os.Getenv(env); env != "" {
		switch strings.ToLower(strings.TrimSpace(env)) {
		case "y", "yes", "true", "1":
			return true
		case "n", "no", "false", "0":
			return false
		}
	}
	return def
}

func envStr(def string, envs ...string) string {
	for _, e := range envs {
		if env := os.Getenv(e); env != "" {
			return env
		}
	}
	return def
}

func envToInt(def int64, envs ...string) (int64, error) {
	for _, e := range envs {
		if env := os.Getenv(e); env != "" {
			i, err := strconv.ParseInt(env, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("error parsing environment %s=%s as integer: %v", e, env, err)
			}
			return int64(i), nil
		}
	}
	return def, nil
}

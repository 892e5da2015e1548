package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/corewar-arena/corewar/specconst"
)

// Config represents the arena's tuning and host configuration.
type Config struct {
	// Arena settings: the tournament constants, overridable for
	// non-standard matches.
	Arena struct {
		MemSize      int `toml:"mem_size"`
		IdxMod       int `toml:"idx_mod"`
		CycleToDie   int `toml:"cycle_to_die"`
		CycleDelta   int `toml:"cycle_delta"`
		NbrLive      int `toml:"nbr_live"`
		MaxChecks    int `toml:"max_checks"`
		ChampMaxSize int `toml:"champ_max_size"`
	} `toml:"arena"`

	// Match settings
	Match struct {
		MaxCycles   uint64 `toml:"max_cycles"`
		EnableTrace bool   `toml:"enable_trace"`
		EnableStats bool   `toml:"enable_stats"`
	} `toml:"match"`

	// Observer settings: the HTTP+WebSocket live-match endpoint.
	Observer struct {
		Enabled       bool   `toml:"enabled"`
		ListenAddr    string `toml:"listen_addr"`
		BroadcastTick int    `toml:"broadcast_tick"` // publish a snapshot every N cycles
	} `toml:"observer"`

	// Trace settings
	Trace struct {
		OutputFile string `toml:"output_file"`
		IncludeAff bool   `toml:"include_aff"`
		MaxEntries int    `toml:"max_entries"`
	} `toml:"trace"`

	// Statistics settings
	Statistics struct {
		OutputFile     string `toml:"output_file"`
		Format         string `toml:"format"` // json, csv
		CollectHotPath bool   `toml:"collect_hotpath"`
	} `toml:"statistics"`
}

// DefaultConfig returns a configuration seeded with the classic Core War
// tournament constants from specconst.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Arena.MemSize = specconst.MemSize
	cfg.Arena.IdxMod = specconst.IdxMod
	cfg.Arena.CycleToDie = specconst.CycleToDie
	cfg.Arena.CycleDelta = specconst.CycleDelta
	cfg.Arena.NbrLive = specconst.NbrLive
	cfg.Arena.MaxChecks = specconst.MaxChecks
	cfg.Arena.ChampMaxSize = specconst.ChampMaxSize

	cfg.Match.MaxCycles = 100_000_000
	cfg.Match.EnableTrace = false
	cfg.Match.EnableStats = false

	cfg.Observer.Enabled = false
	cfg.Observer.ListenAddr = "127.0.0.1:8765"
	cfg.Observer.BroadcastTick = 1

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.IncludeAff = true
	cfg.Trace.MaxEntries = 100000

	cfg.Statistics.OutputFile = "stats.json"
	cfg.Statistics.Format = "json"
	cfg.Statistics.CollectHotPath = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "corewar")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "corewar")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "corewar", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "corewar", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back to
// defaults when the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

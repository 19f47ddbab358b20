package infra

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kvistrand/microsim/internal/domain"
)

var (
	// currentUserAgent is protected by a mutex so the feed-tap websocket
	// worker can rotate it without a restart.
	uaMu             sync.RWMutex
	currentUserAgent = GetPlatformUserAgent()
)

// GetUserAgent returns the current active User-Agent string. (Thread-safe)
func GetUserAgent() string {
	uaMu.RLock()
	defer uaMu.RUnlock()
	return currentUserAgent
}

// SetUserAgent updates the global User-Agent string. (Thread-safe)
func SetUserAgent(ua string) {
	uaMu.Lock()
	defer uaMu.Unlock()
	currentUserAgent = ua
}

// GetPlatformUserAgent generates a browser-like User-Agent string based on current OS.
func GetPlatformUserAgent() string {
	chromeVer := "120.0.0.0"
	goos := runtime.GOOS
	arch := runtime.GOARCH

	switch goos {
	case "windows":
		return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", chromeVer)
	case "linux":
		linuxArch := "x86_64"
		if arch == "arm64" {
			linuxArch = "aarch64"
		}
		return fmt.Sprintf("Mozilla/5.0 (X11; Linux %s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", linuxArch, chromeVer)
	case "darwin":
		return fmt.Sprintf("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", chromeVer)
	default:
		return "Mozilla/5.0 (compatible; microsim/1.0)"
	}
}

// Mode selects what a cmd/ binary does with the configured feed and storage.
type Mode string

const (
	ModeReplay  Mode = "REPLAY"  // deterministic run against a recorded snapshot file
	ModeFeedtap Mode = "FEEDTAP" // ingest a live feed into WAL + binary snapshots
)

// Config is the full on-disk configuration for a simulator run.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Mode Mode `yaml:"mode"`

	Paths struct {
		SnapshotFile string `yaml:"snapshot_file"` // binary L2 snapshot input (replay) or output (feedtap)
		EventsDB     string `yaml:"events_db"`      // SQLite WAL path
	} `yaml:"paths"`

	Feed struct {
		WSURL  string `yaml:"ws_url"`
		Symbol string `yaml:"symbol"`
		Depth  int    `yaml:"depth"`
	} `yaml:"feed"`

	Simulator domain.SimulatorParams `yaml:"simulator"`

	InitialLedger domain.Ledger `yaml:"initial_ledger"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses a YAML config file, then validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("infra: load config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("infra: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("infra: invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity for the selected mode.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeReplay:
		if c.Paths.SnapshotFile == "" {
			return fmt.Errorf("replay mode requires paths.snapshot_file")
		}
	case ModeFeedtap:
		if c.Feed.WSURL == "" || (!hasPrefix(c.Feed.WSURL, "ws://") && !hasPrefix(c.Feed.WSURL, "wss://")) {
			return fmt.Errorf("feedtap mode requires a valid feed.ws_url (ws:// or wss://)")
		}
		if c.Paths.SnapshotFile == "" {
			return fmt.Errorf("feedtap mode requires paths.snapshot_file as its output path")
		}
	default:
		return fmt.Errorf("unknown mode %q (expected REPLAY or FEEDTAP)", c.Mode)
	}

	if c.Simulator.MaxOrders == 0 {
		return fmt.Errorf("simulator.max_orders must be > 0")
	}
	if c.Simulator.MaxEvents == 0 {
		return fmt.Errorf("simulator.max_events must be > 0")
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

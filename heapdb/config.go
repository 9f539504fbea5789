package heapdb

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the process-wide, test-resettable configuration of the
// engine. PAGE_SIZE in particular is mutable only for tests (§6); changing
// it at runtime does not rewrite existing heap files.
type Config struct {
	PageSize      int           `yaml:"page_size"`
	StringLength  int           `yaml:"string_length"`
	DefaultPages  int           `yaml:"default_pages"`
	NumHistBins   int           `yaml:"num_hist_bins"`
	IOCostPerPage int           `yaml:"io_cost_per_page"`
	SharedLockMin time.Duration `yaml:"shared_lock_min"`
	SharedLockMax time.Duration `yaml:"shared_lock_max"`
	ExclLockMin   time.Duration `yaml:"excl_lock_min"`
	ExclLockMax   time.Duration `yaml:"excl_lock_max"`
}

func defaultConfig() Config {
	return Config{
		PageSize:      4096,
		StringLength:  128,
		DefaultPages:  50,
		NumHistBins:   100,
		IOCostPerPage: 1000,
		SharedLockMin: 33 * time.Millisecond,
		SharedLockMax: 366 * time.Millisecond,
		ExclLockMin:   444 * time.Millisecond,
		ExclLockMax:   544 * time.Millisecond,
	}
}

var (
	configMu      sync.RWMutex
	activeConfig  = defaultConfig()
)

// CurrentConfig returns a copy of the active configuration.
func CurrentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return activeConfig
}

// SetConfig replaces the active configuration wholesale.
func SetConfig(c Config) {
	configMu.Lock()
	defer configMu.Unlock()
	activeConfig = c
}

// ResetConfig restores the built-in defaults. Tests that mutate PageSize or
// the pool capacity should defer this to avoid leaking state into later
// tests.
func ResetConfig() {
	SetConfig(defaultConfig())
}

// SetPageSize overrides PAGE_SIZE alone, leaving the rest of the active
// configuration untouched. Intended for tests exercising small page sizes.
func SetPageSize(n int) {
	configMu.Lock()
	defer configMu.Unlock()
	activeConfig.PageSize = n
}

// LoadConfigFile loads YAML configuration from path and applies it on top of
// the current defaults. Missing fields keep their default values.
func LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapIOError(err, "read config file")
	}
	c := defaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return NewEngineError(IoError, "parse config file: "+err.Error())
	}
	SetConfig(c)
	return nil
}

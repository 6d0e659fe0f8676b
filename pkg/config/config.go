// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// ErrInvalidConfig wraps validation failures of the merged configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex // protects currentConfig and koanfInstance
}

// NewManager creates a Manager holding the default configuration.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
		currentConfig: DefaultConfig(),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Board: BoardConfig{
			Priorities:  []string{"hauling", "mining"},
			CostWorkers: 0,
		},
		Sim: SimConfig{
			Ticks:     500,
			TickDelay: 0,
			UntilIdle: true,
		},
	}
}

// Load loads configuration from the default sources: defaults, the optional
// file at configPath, CAVEWORK_* environment variables and flags.
func (m *Manager) Load(flags *pflag.FlagSet, configPath string) error {
	debug := false
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			debug = true
		}
	}
	return m.LoadWithSources(DefaultSources(configPath, flags, debug))
}

// LoadWithSources loads every source in priority order, lowest first, then
// decodes and validates the merged result. On error the previous
// configuration is kept.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	ordered := append([]ConfigSource(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range ordered {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	cfg, err := decode(k)
	if err != nil {
		return err
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.koanfInstance = k
	m.currentConfig = cfg
	return nil
}

// decode unmarshals the merged keys. Values that arrive as strings from the
// environment or flags are coerced with cast.
func decode(k *koanf.Koanf) (Config, error) {
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling final config: %w", err)
	}

	if k.Exists("board.priorities") {
		cfg.Board.Priorities = splitList(k.Get("board.priorities"))
	}
	if k.Exists("sim.tick_delay") {
		d, err := cast.ToDurationE(k.Get("sim.tick_delay"))
		if err != nil {
			return Config{}, fmt.Errorf("%w: sim.tick_delay: %w", ErrInvalidConfig, err)
		}
		cfg.Sim.TickDelay = d
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	return cfg, nil
}

// splitList accepts a list or a comma separated string.
func splitList(v any) []string {
	var out []string
	for _, item := range cast.ToStringSlice(v) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks cfg against its struct tags.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.currentConfig
	cfg.Board.Priorities = append([]string(nil), cfg.Board.Priorities...)
	return cfg
}

// Koanf returns the merged key space of the last successful load.
func (m *Manager) Koanf() *koanf.Koanf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map[string]interface{}
// for Koanf's confmap.Provider.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":    def.Log.Level,
		"log.format":   def.Log.Format,
		"log.no_color": def.Log.NoColor,

		"board.priorities":   def.Board.Priorities,
		"board.cost_workers": def.Board.CostWorkers,

		"sim.ticks":      def.Sim.Ticks,
		"sim.miners":     def.Sim.Miners,
		"sim.tick_delay": def.Sim.TickDelay.String(),
		"sim.until_idle": def.Sim.UntilIdle,
	}
}

// BindFlags defines command-line flags corresponding to configuration settings.
// Flag names match koanf keys so posflag can map them directly.
func BindFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log.level", def.Log.Level, "Log level (trace, debug, info, warn, error)")
	flags.String("log.format", def.Log.Format, "Log format (text, json)")
	flags.StringSlice("board.priorities", def.Board.Priorities, "Job category priority order, highest first")
	flags.Int("board.cost_workers", def.Board.CostWorkers, "Parallel cost estimates per allocation (0 = GOMAXPROCS)")
	flags.Int("sim.ticks", def.Sim.Ticks, "Maximum number of simulation steps")
	flags.Int("sim.miners", def.Sim.Miners, "Spawn at most this many miners (0 = one per spawn point)")
	flags.Duration("sim.tick_delay", time.Duration(0), "Pause between simulation steps")
	flags.Bool("sim.until_idle", def.Sim.UntilIdle, "Stop once no miner can do anything")
}

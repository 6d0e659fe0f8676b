package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_StartsWithDefaults(t *testing.T) {
	manager := NewManager()
	require.NotNil(t, manager.Koanf())
	assert.Equal(t, ".", manager.Koanf().Delim(), "Koanf delimiter should be '.'")
	assert.Equal(t, DefaultConfig(), manager.Get())
}

func TestNewManager_ManagersDoNotShareState(t *testing.T) {
	m1 := NewManager()
	m2 := NewManager()

	flags := newTestFlagSet()
	require.NoError(t, flags.Set("log.level", "warn"))
	require.NoError(t, m1.Load(flags, ""))

	assert.Equal(t, "warn", m1.Get().Log.Level)
	assert.Equal(t, "info", m2.Get().Log.Level)
}

func TestDefaultConfig_ReturnsExpectedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Log.Level, "Default log level should be 'info'")
	assert.Equal(t, "text", cfg.Log.Format, "Default log format should be 'text'")
	assert.Equal(t, []string{"hauling", "mining"}, cfg.Board.Priorities)
	assert.Equal(t, 500, cfg.Sim.Ticks)
	assert.True(t, cfg.Sim.UntilIdle)
	require.NoError(t, Validate(cfg))
}

func TestManager_Load_LoadsDefaultsWhenNoFlags(t *testing.T) {
	manager := NewManager()
	err := manager.Load(nil, "")
	require.NoError(t, err, "Load should not return error when loading defaults")

	assert.Equal(t, DefaultConfig(), manager.Get())
}

func TestManager_Load_OverridesWithFlags(t *testing.T) {
	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("log.level", "error")
	_ = flags.Set("log.format", "json")
	_ = flags.Set("sim.ticks", "42")
	_ = flags.Set("sim.tick_delay", "25ms")
	_ = flags.Set("board.priorities", "mining,hauling")

	err := manager.Load(flags, "")
	require.NoError(t, err, "Load should not return error when loading with flags")

	cfg := manager.Get()
	assert.Equal(t, "error", cfg.Log.Level, "Flag should override log level")
	assert.Equal(t, "json", cfg.Log.Format, "Flag should override log format")
	assert.Equal(t, 42, cfg.Sim.Ticks)
	assert.Equal(t, 25*time.Millisecond, cfg.Sim.TickDelay)
	assert.Equal(t, []string{"mining", "hauling"}, cfg.Board.Priorities)
}

func TestManager_Load_DebugFlagSetsLogLevelToDebug(t *testing.T) {
	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("debug", "true")
	err := manager.Load(flags, "")
	require.NoError(t, err, "Load should not return error when loading with debug flag")
	assert.Equal(t, "debug", manager.Get().Log.Level, "Debug flag should set log level to debug")
}

func TestManager_Load_LayersFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cavework.yaml")
	content := `
log:
  level: warn
board:
  priorities: [mining, hauling]
  cost_workers: 4
sim:
  ticks: 100
  tick_delay: 10ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CAVEWORK_SIM_TICKS", "200")
	t.Setenv("CAVEWORK_SIM_UNTIL_IDLE", "false")

	flags := newTestFlagSet()
	require.NoError(t, flags.Set("sim.ticks", "300"))

	manager := NewManager()
	require.NoError(t, manager.Load(flags, path))

	cfg := manager.Get()
	assert.Equal(t, "warn", cfg.Log.Level, "file overrides defaults")
	assert.Equal(t, []string{"mining", "hauling"}, cfg.Board.Priorities)
	assert.Equal(t, 4, cfg.Board.CostWorkers)
	assert.Equal(t, 10*time.Millisecond, cfg.Sim.TickDelay)
	assert.False(t, cfg.Sim.UntilIdle, "env overrides defaults")
	assert.Equal(t, 300, cfg.Sim.Ticks, "flags override env and file")
}

func TestManager_Load_PrioritiesFromEnvString(t *testing.T) {
	t.Setenv("CAVEWORK_BOARD_PRIORITIES", "mining, hauling")

	manager := NewManager()
	require.NoError(t, manager.Load(nil, ""))
	assert.Equal(t, []string{"mining", "hauling"}, manager.Get().Board.Priorities)
}

func TestManager_Load_InvalidKeepsPrevious(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown level", "log.level", "loud"},
		{"unknown format", "log.format", "xml"},
		{"zero ticks", "sim.ticks", "0"},
		{"negative workers", "board.cost_workers", "-1"},
		{"duplicate priorities", "board.priorities", "mining,mining"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager()
			flags := newTestFlagSet()
			require.NoError(t, flags.Set(tt.key, tt.val))

			err := manager.Load(flags, "")
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Equal(t, DefaultConfig(), manager.Get())
		})
	}
}

func TestManager_Get_ReturnsCopy(t *testing.T) {
	manager := NewManager()
	cfg := manager.Get()
	cfg.Board.Priorities[0] = "changed"
	assert.Equal(t, "hauling", manager.Get().Board.Priorities[0])
}

func TestDefaultConfigAsMap_MatchesDefaults(t *testing.T) {
	m := DefaultConfigAsMap()
	def := DefaultConfig()
	assert.Equal(t, def.Log.Level, m["log.level"])
	assert.Equal(t, def.Board.Priorities, m["board.priorities"])
	assert.Equal(t, def.Sim.Ticks, m["sim.ticks"])
	assert.Equal(t, "0s", m["sim.tick_delay"])
}

func TestBindFlags_AddsDebugFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	debugFlag := flags.Lookup("debug")
	require.NotNil(t, debugFlag, "BindFlags should add a 'debug' flag")
	assert.Equal(t, "Enable debug logging", debugFlag.Usage, "Debug flag should have correct usage")
	assert.Equal(t, "false", debugFlag.DefValue, "Debug flag should default to false")
}

func TestBindFlags_NamesMatchConfigKeys(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	for key := range DefaultConfigAsMap() {
		if key == "log.no_color" {
			continue // bound by the CLI as --no-color
		}
		assert.NotNil(t, flags.Lookup(key), "missing flag for %s", key)
	}
}

func newTestFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	return flags
}

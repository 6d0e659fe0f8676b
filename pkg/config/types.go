// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for cavework.
type Config struct {
	Log   LogConfig   `description:"Logging configuration" koanf:"log"`
	Board BoardConfig `description:"Job board configuration" koanf:"board"`
	Sim   SimConfig   `description:"Simulation configuration" koanf:"sim"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level   string `description:"Log level: trace | debug | info | warn | error" koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format  string `description:"Log format: json | text" koanf:"format" validate:"oneof=json text"`
	NoColor bool   `description:"Disable colored output" koanf:"no_color"`
}

// BoardConfig holds job board settings.
type BoardConfig struct {
	// Priorities lists category names, highest first. Bare names are in the
	// cavework namespace. Empty means the built-in order.
	Priorities  []string `description:"Category priority order" koanf:"priorities" validate:"omitempty,unique,dive,required"`
	CostWorkers int      `description:"Parallel cost estimates per allocation (0 = GOMAXPROCS)" koanf:"cost_workers" validate:"gte=0,lte=1024"`
}

// SimConfig holds defaults for simulation runs. Scenario files and flags
// override them.
type SimConfig struct {
	Ticks     int           `description:"Maximum number of steps" koanf:"ticks" validate:"gte=1"`
	Miners    int           `description:"Spawn at most this many miners (0 = one per spawn point)" koanf:"miners" validate:"gte=0"`
	TickDelay time.Duration `description:"Pause between steps" koanf:"tick_delay" validate:"gte=0"`
	UntilIdle bool          `description:"Stop once no miner can do anything" koanf:"until_idle"`
}

// Package scenario loads cave descriptions from YAML files.
//
// A scenario looks like:
//
//	version: "1.0"
//	name: first dig
//	ticks: 200
//	priorities: [hauling, mining]
//	attributes:
//	  tick_delay: 50ms
//	  until_idle: true
//	map:
//	  - "BBBBBB"
//	  - "BS.M#B"
//	  - "BBBBBB"
//
// Map characters: '#' dirt wall, 'R' rock wall, 'B' bedrock, '.' floor,
// '~' rubble, 'S' store room, 'M' floor with a miner on it.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/cavework/cavework/pkg/level"
)

// SupportedVersions is the format version range this package reads.
const SupportedVersions = "^1"

// ErrInvalidScenario wraps every load and validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

var validate = validator.New()

var mapTiles = map[rune]level.Tile{
	'#': level.TileDirtWall,
	'R': level.TileRockWall,
	'B': level.TileBedrock,
	'.': level.TileFloor,
	'~': level.TileRubble,
	'S': level.TileStoreRoom,
	'M': level.TileFloor,
}

const minerChar = 'M'

// Scenario is a parsed scenario file.
type Scenario struct {
	Version    string         `yaml:"version" validate:"required"`
	Name       string         `yaml:"name" validate:"required"`
	Ticks      int            `yaml:"ticks" validate:"gte=0"`
	Priorities []string       `yaml:"priorities" validate:"omitempty,unique,dive,required"`
	Attributes map[string]any `yaml:"attributes"`
	Map        []string       `yaml:"map" validate:"required,min=1,dive,required"`

	// Settings is decoded from Attributes.
	Settings Settings `yaml:"-"`
}

// Settings are the typed simulation knobs a scenario may carry in its
// attributes. Values are read loosely: "4", 4 and 4.0 are all fine.
type Settings struct {
	TickDelay   time.Duration
	CostWorkers int
	UntilIdle   bool
}

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrInvalidScenario }

// Load reads and validates a .yaml or .yml scenario file.
func Load(path string) (*Scenario, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: unsupported file format %q (use .yaml or .yml)", ErrInvalidScenario, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: parse YAML: %w", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario and decodes its settings.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: fmt.Sprintf("failed %q check", fe.Tag())}
		}
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if err := checkVersion(s.Version); err != nil {
		return err
	}
	if err := s.checkMap(); err != nil {
		return err
	}
	settings, err := decodeSettings(s.Attributes)
	if err != nil {
		return err
	}
	s.Settings = settings
	return nil
}

func checkVersion(v string) error {
	version, err := semver.NewVersion(v)
	if err != nil {
		return &ValidationError{Field: "version", Reason: fmt.Sprintf("%q is not a semantic version", v)}
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return &ValidationError{Field: "version", Reason: fmt.Sprintf("%s is not supported (want %s)", version, SupportedVersions)}
	}
	return nil
}

func (s *Scenario) checkMap() error {
	width := len(s.Map[0])
	var miners, stores int
	for y, row := range s.Map {
		if len(row) != width {
			return &ValidationError{Field: "map", Reason: fmt.Sprintf("row %d is %d wide, want %d", y, len(row), width)}
		}
		for x, c := range row {
			if _, ok := mapTiles[c]; !ok {
				return &ValidationError{Field: "map", Reason: fmt.Sprintf("unknown tile %q at (%d, %d)", c, x, y)}
			}
			switch c {
			case minerChar:
				miners++
			case 'S':
				stores++
			}
		}
	}
	if miners == 0 {
		return &ValidationError{Field: "map", Reason: "no miner ('M') placed"}
	}
	if stores == 0 {
		return &ValidationError{Field: "map", Reason: "no store room ('S') placed"}
	}
	return nil
}

func decodeSettings(attrs map[string]any) (Settings, error) {
	var out Settings
	for key, raw := range attrs {
		var err error
		switch key {
		case "tick_delay":
			out.TickDelay, err = cast.ToDurationE(raw)
			if err == nil && out.TickDelay < 0 {
				err = errors.New("must not be negative")
			}
		case "cost_workers":
			out.CostWorkers, err = cast.ToIntE(raw)
			if err == nil && out.CostWorkers < 0 {
				err = errors.New("must not be negative")
			}
		case "until_idle":
			out.UntilIdle, err = cast.ToBoolE(raw)
		default:
			return Settings{}, &ValidationError{Field: "attributes." + key, Reason: "unknown attribute"}
		}
		if err != nil {
			return Settings{}, &ValidationError{Field: "attributes." + key, Reason: err.Error()}
		}
	}
	return out, nil
}

// HasSetting reports whether the scenario sets the attribute key, so callers
// can tell an explicit false or zero from an absent one.
func (s *Scenario) HasSetting(key string) bool {
	_, ok := s.Attributes[key]
	return ok
}

// Size returns the map width and height.
func (s *Scenario) Size() (int, int) {
	return len(s.Map[0]), len(s.Map)
}

// Build creates the level described by the map and returns the miner spawn
// points in row order.
func (s *Scenario) Build(ctx context.Context, opts ...level.Option) (*level.Level, []level.TilePos, error) {
	w, h := s.Size()
	lvl, err := level.New(w, h, opts...)
	if err != nil {
		return nil, nil, err
	}
	var spawns []level.TilePos
	for y, row := range s.Map {
		for x, c := range row {
			pos := level.Pos(x, y)
			lvl.SetTile(ctx, pos, mapTiles[c])
			if c == minerChar {
				spawns = append(spawns, pos)
			}
		}
	}
	return lvl, spawns, nil
}

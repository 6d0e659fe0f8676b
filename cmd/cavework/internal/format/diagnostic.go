package format

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/cavework/cavework/pkg/event"
	"github.com/cavework/cavework/pkg/level"
	"github.com/cavework/cavework/pkg/sim"
)

var (
	storedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	exposedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	tileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	diagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Diagnostic prints world events of a run as they happen. What is printed
// grows with the -v count:
//
//	-v    resources stored
//	-vv   tiles changed, walls exposed
//	-vvv  every tick
type Diagnostic struct {
	mu    sync.Mutex
	w     io.Writer
	level int
	color bool
}

// NewDiagnostic creates a Diagnostic writing to w.
func NewDiagnostic(w io.Writer, verbosity int, color bool) *Diagnostic {
	return &Diagnostic{w: w, level: verbosity, color: color}
}

// Attach subscribes d to the events of bus that its verbosity asks for.
func (d *Diagnostic) Attach(bus *event.Bus) {
	if d.level >= 1 {
		bus.Subscribe(level.EventResourceStored, d.onStored)
	}
	if d.level >= 2 {
		bus.Subscribe(level.EventTileChanged, d.onTileChanged)
		bus.Subscribe(level.EventWallExposed, d.onWallExposed)
	}
	if d.level >= 3 {
		bus.Subscribe(sim.EventStep, d.onStep)
	}
}

func (d *Diagnostic) onStored(_ context.Context, data any) {
	if e, ok := data.(level.ResourceStored); ok {
		d.print(storedStyle, "stored resource %s at %s", shortID(e.Resource.ID()), e.Store)
	}
}

func (d *Diagnostic) onTileChanged(_ context.Context, data any) {
	if e, ok := data.(level.TileChanged); ok {
		d.print(tileStyle, "tile %s: %s -> %s", e.Pos, e.From.Name().Path, e.To.Name().Path)
	}
}

func (d *Diagnostic) onWallExposed(_ context.Context, data any) {
	if e, ok := data.(level.WallExposed); ok {
		d.print(exposedStyle, "exposed %s at %s", e.Tile.Name().Path, e.Pos)
	}
}

func (d *Diagnostic) onStep(_ context.Context, data any) {
	d.print(diagStyle, "tick %v", data)
}

func (d *Diagnostic) print(style lipgloss.Style, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if d.color {
		line = style.Render(line)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = fmt.Fprintln(d.w, line)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

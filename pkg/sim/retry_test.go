package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cavework/cavework/pkg/actor"
	"github.com/cavework/cavework/pkg/event"
	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/jobs"
	"github.com/cavework/cavework/pkg/level"
)

// newRowSim builds a one-row cave, digs out the given walls before any miner
// arrives and starts a simulation with one miner at spawn.
func newRowSim(t *testing.T, row string, dug []level.TilePos, spawn level.TilePos) *Simulation {
	t.Helper()
	ctx := context.Background()
	bus := event.New()
	lvl, err := level.New(len(row), 1, level.WithEventBus(bus))
	require.NoError(t, err)
	chars := map[rune]level.Tile{'.': level.TileFloor, '#': level.TileDirtWall, 'B': level.TileBedrock, 'S': level.TileStoreRoom}
	for x, c := range row {
		lvl.SetTile(ctx, level.Pos(x, 0), chars[c])
	}
	for _, pos := range dug {
		require.True(t, lvl.Dig(ctx, pos, level.TileDirtWall.Durability()))
	}

	reg := job.NewRegistry()
	require.NoError(t, jobs.RegisterDefaults(reg))
	s, err := New(lvl, bus, reg, []level.TilePos{spawn})
	require.NoError(t, err)
	return s
}

// trackedJob returns the live job the simulation keeps for the wall or
// loose resource at pos.
func trackedJob(s *Simulation, pos level.TilePos) job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.mining[pos]; ok {
		return j
	}
	for r, j := range s.hauling {
		if r.Pos() == pos {
			return j
		}
	}
	return nil
}

func TestStep_FailedJobIsReplaced(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		dug    []level.TilePos
		kind   job.Kind
		target level.TilePos
		other  level.TilePos
		stored int
	}{
		{
			name:   "mining",
			row:    "#........#",
			kind:   jobs.KindMining,
			target: level.Pos(0, 0),
			other:  level.Pos(9, 0),
		},
		{
			name:   "hauling",
			row:    "S#......#S",
			dug:    []level.TilePos{level.Pos(1, 0), level.Pos(8, 0)},
			kind:   jobs.KindHauling,
			target: level.Pos(1, 0),
			other:  level.Pos(8, 0),
			stored: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newRowSim(t, tt.row, tt.dug, level.Pos(4, 0))
			category, ok := s.registry.Lookup(tt.kind)
			require.True(t, ok)
			name := category.String()
			m := s.Miners()[0]

			// The nearer target is claimed first and the miner sets off.
			require.NoError(t, s.Step(ctx))
			original := trackedJob(s, tt.target)
			require.NotNil(t, original)
			require.True(t, m.Job() == original)
			require.Equal(t, level.Pos(3, 0), m.Position())

			// Cut the way to the target.
			s.level.SetTile(ctx, level.Pos(2, 0), level.TileBedrock)
			require.NoError(t, s.Step(ctx))

			assert.Equal(t, job.StateFailed, original.Lifecycle().State())
			assert.Equal(t, 1, s.Report().Failed[name])

			replacement := trackedJob(s, tt.target)
			require.NotNil(t, replacement)
			assert.False(t, replacement == original, "a fresh job replaces the failed one")
			assert.Equal(t, job.StatePending, replacement.Lifecycle().State())
			assert.Equal(t, 1, s.Board().Pending(category))

			// The retry pass of the same step handed out the reachable job.
			next := trackedJob(s, tt.other)
			require.NotNil(t, next)
			assert.True(t, m.Job() == next)
			assert.Equal(t, job.StateActive, next.Lifecycle().State())

			// The failed instance can't come back through the board.
			s.Board().Enqueue(original)
			assert.Equal(t, uint64(1), s.Board().Stats().Ignored)

			s.bus.Subscribe(EventStep, func(context.Context, any) {
				assert.False(t, m.Job() == original, "retired job handed out again")
			})
			s.level.SetTile(ctx, level.Pos(2, 0), level.TileFloor)

			report, err := s.Run(ctx, 200, true)
			require.NoError(t, err)
			assert.True(t, report.Quiescent)
			assert.Equal(t, 2, report.Completed[name])
			assert.Equal(t, 1, report.Failed[name])
			assert.Equal(t, tt.stored, report.Stored)
			assert.Equal(t, job.StateCompleted, replacement.Lifecycle().State())
			assert.Equal(t, job.StateFailed, original.Lifecycle().State())
			assert.Equal(t, report.Board.Claimed, uint64(report.TotalCompleted()+1))
		})
	}
}

func TestAllocate_RefusedJobIsRetiredAndReplaced(t *testing.T) {
	ctx := context.Background()
	s := newRowSim(t, "#...#", nil, level.Pos(2, 0))
	mining, _ := s.registry.Lookup(jobs.KindMining)
	m := s.Miners()[0]

	require.NoError(t, s.Step(ctx))
	require.False(t, m.Idle())
	busyWith := m.Job()

	refused := trackedJob(s, level.Pos(4, 0))
	require.NotNil(t, refused)
	require.Equal(t, job.StatePending, refused.Lifecycle().State())

	// A busy miner gets the other wall from the board but cannot take it.
	n, err := s.allocate(ctx, []*actor.Miner{m})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, m.Job() == busyWith)

	assert.Equal(t, job.StateFailed, refused.Lifecycle().State())
	assert.Equal(t, 1, s.Report().Failed[mining.String()])

	replacement := trackedJob(s, level.Pos(4, 0))
	require.NotNil(t, replacement)
	assert.False(t, replacement == refused)
	assert.Equal(t, job.StatePending, replacement.Lifecycle().State())
	assert.Equal(t, 1, s.Board().Pending(mining))
}

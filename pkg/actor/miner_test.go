package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/level"
)

type scriptedJob struct {
	job.Base
	started int
	ticks   int
}

func (s *scriptedJob) Kind() job.Kind { return "scripted" }
func (s *scriptedJob) EstimateCost(context.Context, job.Actor) (job.Cost, bool, error) {
	return 0, true, nil
}
func (s *scriptedJob) Start(job.Actor) { s.started++ }
func (s *scriptedJob) Tick(job.Actor)  { s.ticks++ }

func claimed(t *testing.T) *scriptedJob {
	t.Helper()
	j := &scriptedJob{}
	require.True(t, j.Lifecycle().MarkPending())
	require.True(t, j.Lifecycle().MarkClaimed())
	return j
}

func corridor(t *testing.T, width int) *level.Level {
	t.Helper()
	lvl, err := level.New(width, 1)
	require.NoError(t, err)
	for x := 0; x < width; x++ {
		lvl.SetTile(context.Background(), level.Pos(x, 0), level.TileFloor)
	}
	return lvl
}

func TestMiner_IDs(t *testing.T) {
	lvl := corridor(t, 2)
	a := NewMiner(lvl, level.Pos(0, 0))
	b := NewMiner(lvl, level.Pos(0, 0))
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Len(t, a.ID(), 36)
	assert.Equal(t, "m1", NewMiner(lvl, level.Pos(0, 0), WithID("m1")).ID())
}

func TestMiner_AssignRequiresClaimedJob(t *testing.T) {
	m := NewMiner(corridor(t, 2), level.Pos(0, 0))

	fresh := &scriptedJob{}
	assert.False(t, m.Assign(fresh))
	assert.True(t, m.Idle())

	j := claimed(t)
	require.True(t, m.Assign(j))
	assert.Equal(t, 1, j.started)
	assert.Equal(t, job.StateActive, j.Lifecycle().State())
	assert.Same(t, j, m.Job())

	assert.False(t, m.Assign(claimed(t)), "already busy")
}

func TestMiner_TickWalksThenWorks(t *testing.T) {
	m := NewMiner(corridor(t, 4), level.Pos(0, 0))
	j := claimed(t)
	require.True(t, m.Assign(j))
	require.True(t, m.Navigate(level.Pos(3, 0)))

	for i := 0; i < 3; i++ {
		assert.True(t, m.Navigating())
		m.Tick(context.Background())
	}
	assert.False(t, m.Navigating())
	assert.Equal(t, level.Pos(3, 0), m.Position())
	assert.Equal(t, 3, j.ticks)
}

func TestMiner_BlockedPathIsDropped(t *testing.T) {
	lvl := corridor(t, 4)
	m := NewMiner(lvl, level.Pos(0, 0))
	require.True(t, m.Navigate(level.Pos(3, 0)))

	lvl.SetTile(context.Background(), level.Pos(1, 0), level.TileRockWall)
	m.Tick(context.Background())

	assert.False(t, m.Navigating())
	assert.Equal(t, level.Pos(0, 0), m.Position())
	assert.False(t, m.Navigate(level.Pos(3, 0)))
}

func TestMiner_Release(t *testing.T) {
	var events []bool
	m := NewMiner(corridor(t, 2), level.Pos(0, 0), WithReleaseHook(func(_ *Miner, _ job.Job, success bool) {
		events = append(events, success)
	}))

	j := claimed(t)
	require.True(t, m.Assign(j))

	m.Release(claimed(t), false)
	assert.False(t, m.Idle(), "releasing someone else's job is ignored")

	m.Release(j, true)
	assert.True(t, m.Idle())
	assert.Equal(t, job.StateFailed, j.Lifecycle().State())
	assert.True(t, m.WantsRetry())
	assert.False(t, m.WantsRetry(), "flag is consumed")

	m.Release(j, false)
	assert.Equal(t, job.StateFailed, j.Lifecycle().State(), "retired jobs stay retired")
	assert.Equal(t, []bool{false}, events)

	ok := claimed(t)
	require.True(t, m.Assign(ok))
	m.Release(ok, false)
	assert.Equal(t, job.StateCompleted, ok.Lifecycle().State())
	assert.Equal(t, []bool{false, true}, events)
}

func TestMiner_PickupAndDropOnFailure(t *testing.T) {
	ctx := context.Background()
	lvl, err := level.New(2, 1)
	require.NoError(t, err)
	lvl.SetTile(ctx, level.Pos(0, 0), level.TileFloor)
	lvl.SetTile(ctx, level.Pos(1, 0), level.TileDirtWall)
	require.True(t, lvl.Dig(ctx, level.Pos(1, 0), 10))
	res := lvl.Resources()[0]

	m := NewMiner(lvl, level.Pos(0, 0))
	j := claimed(t)
	require.True(t, m.Assign(j))
	require.True(t, m.Pickup(res))
	assert.False(t, m.Pickup(res))
	assert.Same(t, res, m.Holding())

	m.Release(j, true)
	assert.Nil(t, m.Holding())
	assert.True(t, res.Available())
	assert.Equal(t, level.Pos(0, 0), res.Pos())
}

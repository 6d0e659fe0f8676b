package jobs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cavework/cavework/pkg/actor"
	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/jobs"
	"github.com/cavework/cavework/pkg/level"
)

func newLevel(t *testing.T, row string) *level.Level {
	t.Helper()
	lvl, err := level.New(len(row), 1)
	require.NoError(t, err)
	chars := map[rune]level.Tile{'.': level.TileFloor, '#': level.TileDirtWall, 'B': level.TileBedrock, 'S': level.TileStoreRoom}
	for x, c := range row {
		lvl.SetTile(context.Background(), level.Pos(x, 0), chars[c])
	}
	return lvl
}

// claim walks j through the board half of the lifecycle.
func claim(t *testing.T, j job.Job) {
	t.Helper()
	require.True(t, j.Lifecycle().MarkPending())
	require.True(t, j.Lifecycle().MarkClaimed())
}

func tickUntilIdle(t *testing.T, m *actor.Miner, limit int) int {
	t.Helper()
	for i := 1; i <= limit; i++ {
		m.Tick(context.Background())
		if m.Idle() {
			return i
		}
	}
	t.Fatalf("miner still busy after %d ticks", limit)
	return limit
}

type plainActor struct{ released []bool }

func (p *plainActor) ID() string { return "plain" }
func (p *plainActor) Release(_ job.Job, retry bool) {
	p.released = append(p.released, retry)
}

func TestRegisterDefaults(t *testing.T) {
	reg := job.NewRegistry()
	require.NoError(t, jobs.RegisterDefaults(reg))
	require.Error(t, jobs.RegisterDefaults(reg), "second registration collides")

	order, err := jobs.DefaultPriorities(reg)
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, jobs.NameHauling, order[0].Name())
	assert.Equal(t, jobs.NameMining, order[1].Name())

	assert.Same(t, order[1], reg.CategoryOf(jobs.NewMiningJob(level.TileDirtWall, level.Pos(0, 0))))

	_, err = jobs.DefaultPriorities(job.NewRegistry())
	require.ErrorIs(t, err, job.ErrUnregisteredKind)
}

func TestMiningJob_DigsWallOut(t *testing.T) {
	lvl := newLevel(t, "...#")
	m := actor.NewMiner(lvl, level.Pos(0, 0))
	j := jobs.NewMiningJob(level.TileDirtWall, level.Pos(3, 0))

	cost, ok, err := j.EstimateCost(context.Background(), m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, job.Cost(20), cost)

	claim(t, j)
	require.True(t, m.Assign(j))
	ticks := tickUntilIdle(t, m, 10)

	assert.Equal(t, 1+level.TileDirtWall.Durability(), ticks, "the last step and the first dig share a tick")
	assert.Equal(t, job.StateCompleted, j.Lifecycle().State())
	assert.Equal(t, level.TileRubble, lvl.Tile(level.Pos(3, 0)))
	assert.Len(t, lvl.Resources(), 1)
	assert.False(t, m.WantsRetry())
}

func TestMiningJob_Unreachable(t *testing.T) {
	lvl := newLevel(t, "..B#")
	m := actor.NewMiner(lvl, level.Pos(0, 0))
	j := jobs.NewMiningJob(level.TileDirtWall, level.Pos(3, 0))

	_, ok, err := j.EstimateCost(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMiningJob_TileAlreadyGone(t *testing.T) {
	lvl := newLevel(t, "..#")
	m := actor.NewMiner(lvl, level.Pos(0, 0))
	j := jobs.NewMiningJob(level.TileDirtWall, level.Pos(2, 0))
	claim(t, j)
	require.True(t, m.Assign(j))

	lvl.SetTile(context.Background(), level.Pos(2, 0), level.TileFloor)
	_, ok, _ := jobs.NewMiningJob(level.TileDirtWall, level.Pos(2, 0)).EstimateCost(context.Background(), m)
	assert.False(t, ok)

	m.Tick(context.Background())
	assert.True(t, m.Idle())
	assert.Equal(t, job.StateCompleted, j.Lifecycle().State())
}

func TestMiningJob_NavigationFailureRetries(t *testing.T) {
	lvl := newLevel(t, "...#")
	m := actor.NewMiner(lvl, level.Pos(0, 0))
	j := jobs.NewMiningJob(level.TileDirtWall, level.Pos(3, 0))
	claim(t, j)
	require.True(t, m.Assign(j))

	lvl.SetTile(context.Background(), level.Pos(1, 0), level.TileBedrock)
	m.Tick(context.Background())
	m.Tick(context.Background())

	assert.True(t, m.Idle())
	assert.Equal(t, job.StateFailed, j.Lifecycle().State())
	assert.True(t, m.WantsRetry())
	assert.Equal(t, level.Pos(0, 0), m.Position())
}

func TestJobs_IneligibleActor(t *testing.T) {
	a := &plainActor{}
	mining := jobs.NewMiningJob(level.TileDirtWall, level.Pos(0, 0))

	_, ok, err := mining.EstimateCost(context.Background(), a)
	require.NoError(t, err)
	assert.False(t, ok)

	mining.Start(a)
	mining.Tick(a)
	assert.Equal(t, []bool{false, false}, a.released)
}

func TestHaulJob_CarriesResourceToStore(t *testing.T) {
	ctx := context.Background()
	lvl := newLevel(t, "S...#")
	require.True(t, lvl.Dig(ctx, level.Pos(4, 0), level.TileDirtWall.Durability()))
	res := lvl.Resources()[0]

	m := actor.NewMiner(lvl, level.Pos(1, 0))
	j := jobs.NewHaulJob(res)

	cost, ok, err := j.EstimateCost(ctx, m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, job.Cost(40), cost)

	claim(t, j)
	require.True(t, m.Assign(j))
	tickUntilIdle(t, m, 20)

	assert.Equal(t, job.StateCompleted, j.Lifecycle().State())
	assert.True(t, res.Stored())
	assert.Nil(t, m.Holding())
	assert.Equal(t, 1, lvl.Stored())
	assert.Empty(t, lvl.Resources())
}

func TestHaulJob_Eligibility(t *testing.T) {
	ctx := context.Background()
	lvl := newLevel(t, "S.#.#")
	require.True(t, lvl.Dig(ctx, level.Pos(2, 0), level.TileDirtWall.Durability()))
	require.True(t, lvl.Dig(ctx, level.Pos(4, 0), level.TileDirtWall.Durability()))
	first, second := lvl.Resources()[0], lvl.Resources()[1]

	m := actor.NewMiner(lvl, first.Pos())
	j := jobs.NewHaulJob(second)

	_, ok, _ := j.EstimateCost(ctx, m)
	assert.True(t, ok)

	require.True(t, m.Pickup(first))
	_, ok, _ = j.EstimateCost(ctx, m)
	assert.False(t, ok, "hands are full")

	other := actor.NewMiner(lvl, level.Pos(1, 0))
	require.True(t, second.TryHold())
	_, ok, _ = j.EstimateCost(ctx, other)
	assert.False(t, ok, "resource already carried")
}

func TestHaulJob_NoStoreDropsResource(t *testing.T) {
	ctx := context.Background()
	lvl := newLevel(t, "...#")
	require.True(t, lvl.Dig(ctx, level.Pos(3, 0), level.TileDirtWall.Durability()))
	res := lvl.Resources()[0]

	var released []bool
	m := actor.NewMiner(lvl, level.Pos(3, 0), actor.WithReleaseHook(func(_ *actor.Miner, _ job.Job, success bool) {
		released = append(released, success)
	}))
	j := jobs.NewHaulJob(res)
	claim(t, j)
	require.True(t, m.Assign(j))

	tickUntilIdle(t, m, 5)

	assert.Equal(t, job.StateFailed, j.Lifecycle().State())
	assert.Equal(t, []bool{false}, released)
	assert.True(t, res.Available())
	assert.Equal(t, level.Pos(3, 0), res.Pos())
	assert.Nil(t, m.Holding())
}

func TestHaulJob_SealedStoreIsIneligible(t *testing.T) {
	ctx := context.Background()
	lvl := newLevel(t, "SB..#")
	require.True(t, lvl.Dig(ctx, level.Pos(4, 0), level.TileDirtWall.Durability()))
	res := lvl.Resources()[0]

	m := actor.NewMiner(lvl, level.Pos(2, 0))
	j := jobs.NewHaulJob(res)

	assert.False(t, jobs.StoreReachable(lvl, res.Pos()))
	_, ok, err := j.EstimateCost(ctx, m)
	require.NoError(t, err)
	assert.False(t, ok, "nowhere to carry it")

	lvl.SetTile(ctx, level.Pos(1, 0), level.TileFloor)
	assert.True(t, jobs.StoreReachable(lvl, res.Pos()))
	cost, ok, err := j.EstimateCost(ctx, m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, job.Cost(30), cost, "cost is still the walk to the resource")
}

func TestStoreReachable(t *testing.T) {
	assert.False(t, jobs.StoreReachable(newLevel(t, "...."), level.Pos(0, 0)), "no store room at all")
	assert.True(t, jobs.StoreReachable(newLevel(t, "S..."), level.Pos(3, 0)))
	assert.True(t, jobs.StoreReachable(newLevel(t, "S.B."), level.Pos(1, 0)))
	assert.False(t, jobs.StoreReachable(newLevel(t, "S.B."), level.Pos(3, 0)))
}

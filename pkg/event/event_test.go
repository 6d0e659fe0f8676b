package event

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublish_RunsHandlersInOrder(t *testing.T) {
	bus := New()
	var got []string
	bus.Subscribe("tile.changed", func(_ context.Context, data any) {
		got = append(got, "first:"+data.(string))
	})
	bus.Subscribe("tile.changed", func(_ context.Context, data any) {
		got = append(got, "second:"+data.(string))
	})
	bus.Subscribe("other", func(context.Context, any) {
		got = append(got, "other")
	})

	bus.Publish(context.Background(), "tile.changed", "x")

	require.Equal(t, []string{"first:x", "second:x"}, got)
	require.True(t, bus.HasSubscribers("other"))
	require.False(t, bus.HasSubscribers("missing"))
}

func TestPublish_NestedPublish(t *testing.T) {
	bus := New()
	var got []string
	bus.Subscribe("outer", func(ctx context.Context, _ any) {
		got = append(got, "outer")
		bus.Publish(ctx, "inner", nil)
	})
	bus.Subscribe("inner", func(context.Context, any) {
		got = append(got, "inner")
	})

	bus.Publish(context.Background(), "outer", nil)
	require.Equal(t, []string{"outer", "inner"}, got)
}

func TestPublishAsync(t *testing.T) {
	bus := New()
	var calls atomic.Int32
	var mu sync.Mutex
	seen := map[int]bool{}
	for i := 0; i < 5; i++ {
		bus.Subscribe("run.complete", func(_ context.Context, data any) {
			calls.Add(1)
			mu.Lock()
			seen[data.(int)] = true
			mu.Unlock()
		})
	}

	bus.PublishAsync(context.Background(), "run.complete", 7)
	bus.Wait()

	require.Equal(t, int32(5), calls.Load())
	require.True(t, seen[7])
}

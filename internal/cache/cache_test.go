package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadThrough_LoadsOncePerKey(t *testing.T) {
	calls := map[string]int{}
	c := NewReadThrough(func(_ context.Context, key string) (int, error) {
		calls[key]++
		return len(key), nil
	})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		v, err := c.GetOrCompute(ctx, "pool-a")
		require.NoError(t, err)
		assert.Equal(t, 6, v)
	}
	v, err := c.GetOrCompute(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	assert.Equal(t, 1, calls["pool-a"])
	assert.Equal(t, 1, calls["b"])
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Loads())
}

func TestReadThrough_FirstWriteWins(t *testing.T) {
	n := 0
	c := NewReadThrough(func(_ context.Context, _ string) (int, error) {
		n++
		return n, nil
	})

	ctx := context.Background()
	first, _ := c.GetOrCompute(ctx, "k")
	second, _ := c.GetOrCompute(ctx, "k")

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestReadThrough_ErrorNotCached(t *testing.T) {
	errRead := errors.New("read failed")
	fail := true
	c := NewReadThrough(func(_ context.Context, _ string) (string, error) {
		if fail {
			return "", errRead
		}
		return "ok", nil
	})

	ctx := context.Background()
	_, err := c.GetOrCompute(ctx, "k")
	require.ErrorIs(t, err, errRead)
	_, ok := c.Peek("k")
	assert.False(t, ok)

	fail = false
	v, err := c.GetOrCompute(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestReadThrough_OnResolveOncePerKey(t *testing.T) {
	var resolved []string
	c := NewReadThrough(
		func(_ context.Context, key string) (bool, error) { return true, nil },
		WithOnResolve(func(key string, _ bool) { resolved = append(resolved, key) }),
	)

	ctx := context.Background()
	for _, k := range []string{"a", "a", "b", "a", "b"} {
		_, err := c.GetOrCompute(ctx, k)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"a", "b"}, resolved)
}

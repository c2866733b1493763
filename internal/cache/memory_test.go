package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetTake(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	got, err = c.Take(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	_, err = c.Take(ctx, "k")
	assert.True(t, IsNotFound(err))

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", st.Driver)
	assert.EqualValues(t, 0, st.Keys)
	assert.EqualValues(t, 2, st.Hits)
	assert.EqualValues(t, 1, st.Misses)
}

func TestMemory_Expiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	require.NoError(t, c.Set(ctx, "short", []byte("x"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, 0))
	buf[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New(context.Background(), Config{Driver: "unknown"})
	require.NoError(t, err)
	st, _ := c.Stats(context.Background())
	assert.Equal(t, "memory", st.Driver)
}

func TestMemory_Incr(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")
	defer c.Close()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr(ctx, "hits", 50*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// el TTL lo fija el primer incremento
	time.Sleep(80 * time.Millisecond)
	n, err := c.Incr(ctx, "hits", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

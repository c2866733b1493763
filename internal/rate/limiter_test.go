package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
)

func TestFixedWindow(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory("t")
	defer store.Close()

	l, err := NewFixedWindow(store, "", 2, time.Minute)
	require.NoError(t, err)
	now := time.Date(2024, 3, 9, 14, 5, 10, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4|/upload")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.Allow(ctx, "1.2.3.4|/upload")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, 50*time.Second, res.RetryAfter)

	// otra clave tiene su propio contador
	res, err = l.Allow(ctx, "5.6.7.8|/upload")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// ventana siguiente
	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, "1.2.3.4|/upload")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)
}

func TestNewFixedWindow_Invalid(t *testing.T) {
	_, err := NewFixedWindow(nil, "", 1, time.Second)
	assert.Error(t, err)
	_, err = NewFixedWindow(cache.NewMemory(""), "", 0, time.Second)
	assert.Error(t, err)
}

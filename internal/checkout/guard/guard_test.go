package guard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tecnoshop/checkout-service/internal/checkout"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
	"github.com/tecnoshop/checkout-service/pkg/cache"
	"github.com/tecnoshop/checkout-service/pkg/logger"
)

func exerciseGuard(t *testing.T, g checkout.Guard) {
	ctx := context.Background()

	release, err := g.Acquire(ctx, "k1")
	require.NoError(t, err)

	_, err = g.Acquire(ctx, "k1")
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	other, err := g.Acquire(ctx, "k2")
	require.NoError(t, err)
	other()

	release()
	again, err := g.Acquire(ctx, "k1")
	require.NoError(t, err)
	again()
}

func TestLocalGuard(t *testing.T) {
	exerciseGuard(t, NewLocalGuard())
}

func TestRedisGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(&cache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	exerciseGuard(t, NewRedisGuard(client, time.Minute, logger.NewNop()))
}

func TestRedisGuard_ExpiredLockCanBeRetaken(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(&cache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	g := NewRedisGuard(client, time.Second, logger.NewNop())

	_, err = g.Acquire(context.Background(), "k1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	release, err := g.Acquire(context.Background(), "k1")
	require.NoError(t, err)
	release()
}

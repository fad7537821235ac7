package redis

import (
	"context"
	"testing"
	"time"

	"offline-pay/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewOutcomeCache(client)
	ctx := context.Background()

	result := domain.SyncResult{
		TxID:    "tx-1",
		Nonce:   "nonce-1",
		Outcome: domain.SyncOutcomeApplied,
	}
	require.NoError(t, cache.Set(ctx, "nonce-1", result, time.Hour))

	got, err := cache.Get(ctx, "nonce-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, result, *got)
}

func TestOutcomeCache_Get_Miss(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewOutcomeCache(client)

	got, err := cache.Get(context.Background(), "unseen")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOutcomeCache_RejectionRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewOutcomeCache(client)
	ctx := context.Background()

	result := domain.SyncResult{
		TxID:    "tx-2",
		Nonce:   "nonce-2",
		Outcome: domain.SyncOutcomeRejected,
		Reason:  "insufficient authoritative balance",
	}
	require.NoError(t, cache.Set(ctx, "nonce-2", result, time.Hour))

	got, err := cache.Get(ctx, "nonce-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "insufficient authoritative balance", got.Reason)
}

func TestOutcomeCache_Expiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewOutcomeCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "nonce-3", domain.SyncResult{Outcome: domain.SyncOutcomeApplied}, time.Minute))

	s.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "nonce-3")
	require.NoError(t, err)
	assert.Nil(t, got)
}

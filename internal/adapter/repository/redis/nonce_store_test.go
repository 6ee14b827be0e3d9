package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/ticketchief/internal/adapter/repository/redis"
)

func TestNonceStore_Add(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	store := redis.NewNonceStore(db, 10*time.Minute)
	ctx := context.Background()

	mockRedis.ExpectSetNX("nonce:abc", 1, 10*time.Minute).SetVal(true)
	mockRedis.ExpectSetNX("nonce:abc", 1, 10*time.Minute).SetVal(false)

	added, err := store.Add(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, added)

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestNonceStore_NoRetentionWindow(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	store := redis.NewNonceStore(db, 0)

	mockRedis.ExpectSetNX("nonce:xyz", 1, 0).SetVal(true)

	added, err := store.Add(context.Background(), "xyz")
	require.NoError(t, err)
	assert.True(t, added)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestNonceStore_Error(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	store := redis.NewNonceStore(db, time.Minute)

	mockRedis.ExpectSetNX("nonce:abc", 1, time.Minute).SetErr(errors.New("connection refused"))

	added, err := store.Add(context.Background(), "abc")
	assert.Error(t, err)
	assert.False(t, added)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

func TestCacheRepositoryGenerationDefaultsToZero(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, nil)

	mock.ExpectGet("availability:gen:owner-1").RedisNil()

	gen, err := repo.Generation(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Zero(t, gen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryBumpGeneration(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, nil)

	mock.ExpectIncr("availability:gen:owner-1").SetVal(4)
	mock.ExpectExpire("availability:gen:owner-1", generationTTL).SetVal(true)

	gen, err := repo.BumpGeneration(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), gen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryBumpGenerationFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, nil)

	mock.ExpectIncr("availability:gen:owner-1").SetErr(errors.New("connection refused"))

	_, err := repo.BumpGeneration(context.Background(), "owner-1")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryFreeSlotsAreKeyedByGeneration(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, nil)
	ctx := context.Background()

	start := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	slots := []models.Slot{{
		ID:      models.SlotID("r-1", start),
		OwnerID: "owner-1",
		RangeID: "r-1",
		Start:   start,
		End:     start.Add(30 * time.Minute),
	}}
	payload, err := json.Marshal(slots)
	require.NoError(t, err)

	mock.ExpectSet("availability:free:owner-1:3", string(payload), time.Minute).SetVal("OK")
	mock.ExpectGet("availability:free:owner-1:3").SetVal(string(payload))
	mock.ExpectGet("availability:free:owner-1:4").RedisNil()

	require.NoError(t, repo.SetFreeSlots(ctx, "owner-1", 3, slots, time.Minute))

	got, err := repo.GetFreeSlots(ctx, "owner-1", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(start))
	assert.Equal(t, slots[0].ID, got[0].ID)

	_, err = repo.GetFreeSlots(ctx, "owner-1", 4)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryDropsUndecodableEntry(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, nil)

	mock.ExpectGet("availability:free:owner-1:0").SetVal("{not json")
	mock.ExpectDel("availability:free:owner-1:0").SetVal(1)

	_, err := repo.GetFreeSlots(context.Background(), "owner-1", 0)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	gen, err := repo.BumpGeneration(ctx, "owner-1")
	require.NoError(t, err)
	assert.Zero(t, gen)
	require.NoError(t, repo.SetFreeSlots(ctx, "owner-1", 0, nil, time.Minute))
	_, err = repo.GetFreeSlots(ctx, "owner-1", 0)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	require.NoError(t, repo.Close())
}

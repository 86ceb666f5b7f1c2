package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/calendar-booking-api/internal/models"
)

func TestAvailabilityRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectExec("INSERT INTO availability_ranges").
		WithArgs(sqlmock.AnyArg(), "owner-1", start, end, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rng := &models.AvailabilityRange{OwnerID: "owner-1", Start: start, End: end}
	require.NoError(t, repo.Create(context.Background(), rng))
	assert.NotEmpty(t, rng.ID)

	rows := sqlmock.NewRows([]string{"id", "owner_id", "start_at", "end_at", "created_at"}).
		AddRow(rng.ID, "owner-1", start, end, start)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, start_at, end_at, created_at FROM availability_ranges WHERE owner_id = $1")).
		WithArgs("owner-1").
		WillReturnRows(rows)

	ranges, err := repo.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, rng.ID, ranges[0].ID)
	assert.True(t, ranges[0].End.Equal(end))
	assert.NoError(t, mock.ExpectationsWereMet())
}

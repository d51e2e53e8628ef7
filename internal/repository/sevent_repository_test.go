package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emclab/station-booking/internal/model"
)

func newSeventRepo(t *testing.T) *SeventRepo {
	return NewSeventRepo(newBizDB(t), testLogger())
}

func TestSeventLabWideBlock(t *testing.T) {
	repo := newSeventRepo(t)
	ctx := context.Background()

	ok, err := repo.Create(ctx, model.SeventInput{
		Name:      "annual calibration",
		FromDate:  "2025-09-01",
		ToDate:    "2025-09-03",
		CreatedBy: "admin",
	})
	require.NoError(t, err)
	require.True(t, ok)

	events, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].StationID, "lab-wide block carries no station")

	// Lab-wide blocks are excluded from per-station listings.
	perStation, err := repo.ByStationID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, perStation)
}

func TestSeventPerStation(t *testing.T) {
	repo := newSeventRepo(t)
	ctx := context.Background()

	station := int64(4)
	ok, err := repo.Create(ctx, model.SeventInput{
		Name:      "amplifier repair",
		FromDate:  "2025-09-10",
		ToDate:    "2025-09-12",
		StationID: &station,
		CreatedBy: "admin",
	})
	require.NoError(t, err)
	require.True(t, ok)

	events, err := repo.ByStationID(ctx, station)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].StationID)
	assert.Equal(t, station, *events[0].StationID)

	others, err := repo.ByStationID(ctx, station+1)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestSeventUpdateAndDelete(t *testing.T) {
	repo := newSeventRepo(t)
	ctx := context.Background()

	ok, err := repo.Create(ctx, model.SeventInput{
		Name: "audit", FromDate: "2025-10-01", ToDate: "2025-10-02", CreatedBy: "admin",
	})
	require.NoError(t, err)
	require.True(t, ok)
	events, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	id := events[0].ID

	ok, err = repo.Update(ctx, model.SeventInput{
		ID: id, Name: "audit extended", FromDate: "2025-10-01", ToDate: "2025-10-05",
		CreatedBy: "admin", UpdatedBy: "manager",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ev, err := repo.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "audit extended", ev.Name)
	assert.Equal(t, "2025-10-05", ev.ToDate)
	assert.Equal(t, "manager", ev.UpdatedBy)

	ok, err = repo.Update(ctx, model.SeventInput{ID: 999, Name: "x", FromDate: "a", ToDate: "b"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = repo.ByID(ctx, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

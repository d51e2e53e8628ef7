package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emclab/station-booking/internal/model"
)

func testInput(date, slots string, stationID int64) model.ReservationInput {
	return model.ReservationInput{
		ReservationDate: date,
		TimeSlot:        slots,
		StationID:       stationID,
		Tests:           "RE,CE",
		ProjectEngineer: "pe-zhang",
		TestingEngineer: "te-li",
		ReservateBy:     "pe-zhang",
	}
}

func newReservationRepo(t *testing.T) *ReservationRepo {
	return NewReservationRepo(newBizDB(t), testLogger())
}

func TestCreateBatchSingleSlot(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	inserted, outcomes, err := repo.CreateBatch(ctx, testInput("2025-03-10", "T2", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Inserted)

	statuses, err := repo.StationStatusForDate(ctx, 1, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, model.StationStatus{Occupied: true, TimeSlot: "T2"}, statuses[0])

	free, err := repo.SlotFree(ctx, 1, "2025-03-10", "T1")
	require.NoError(t, err)
	assert.True(t, free)
	free, err = repo.SlotFree(ctx, 1, "2025-03-10", "T2")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestCreateBatchSkipsOccupiedSlots(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	_, _, err := repo.CreateBatch(ctx, testInput("2025-03-10", "T2", 1))
	require.NoError(t, err)

	inserted, outcomes, err := repo.CreateBatch(ctx, testInput("2025-03-10", "T1,T2,T3", 1))
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Inserted)  // T1
	assert.False(t, outcomes[1].Inserted) // T2 already taken
	assert.True(t, outcomes[2].Inserted)  // T3

	rows, err := repo.ByDate(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCreateBatchDuplicateInsertsNothing(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	inserted, _, err := repo.CreateBatch(ctx, testInput("2025-03-10", "T4", 2))
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	inserted, _, err = repo.CreateBatch(ctx, testInput("2025-03-10", "T4", 2))
	require.NoError(t, err)
	assert.Zero(t, inserted)

	rows, err := repo.ByDate(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCreateBatchRejectsEmptySlotList(t *testing.T) {
	repo := newReservationRepo(t)

	_, _, err := repo.CreateBatch(context.Background(), testInput("2025-03-10", " , ", 1))
	assert.ErrorIs(t, err, ErrNoTimeSlot)
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	const workers = 8
	results := make([]int, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = repo.CreateBatch(ctx, testInput("2025-03-11", "T3", 5))
		}(i)
	}
	wg.Wait()

	total := 0
	for i := range results {
		require.NoError(t, errs[i])
		total += results[i]
	}
	assert.Equal(t, 1, total, "exactly one booking may win the slot")

	rows, err := repo.ByDate(ctx, "2025-03-11")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUpdateOptimisticConcurrency(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	_, _, err := repo.CreateBatch(ctx, testInput("2025-03-12", "T1", 1))
	require.NoError(t, err)
	rows, err := repo.ByDate(ctx, "2025-03-12")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	current := rows[0]
	stale := current

	// Keep the refreshed updated_on distinguishable from the original.
	time.Sleep(5 * time.Millisecond)

	current.ClientName = "ACME"
	require.NoError(t, repo.Update(ctx, current))

	stale.ClientName = "stale write"
	assert.ErrorIs(t, repo.Update(ctx, stale), ErrNotFoundOrStale)

	rows, err = repo.ByDate(ctx, "2025-03-12")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ACME", rows[0].ClientName)
}

func TestUpdateMissingRow(t *testing.T) {
	repo := newReservationRepo(t)

	err := repo.Update(context.Background(), model.Reservation{ID: 999, UpdatedOn: "2025-01-01 00:00:00.000", Tests: "RE"})
	assert.ErrorIs(t, err, ErrNotFoundOrStale)
}

func TestDeleteIdempotent(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	_, _, err := repo.CreateBatch(ctx, testInput("2025-03-13", "T5", 3))
	require.NoError(t, err)
	rows, err := repo.ByDate(ctx, "2025-03-13")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	deleted, err := repo.Delete(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	free, err := repo.SlotFree(ctx, 3, "2025-03-13", "T5")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestByMonthFiltersAndBounds(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	for _, in := range []model.ReservationInput{
		testInput("2025-02-01", "T1", 1),
		testInput("2025-02-28", "T1", 2),
		testInput("2025-03-01", "T1", 1),
	} {
		_, _, err := repo.CreateBatch(ctx, in)
		require.NoError(t, err)
	}
	other := testInput("2025-02-15", "T2", 1)
	other.ProjectEngineer = "pe-wang"
	_, _, err := repo.CreateBatch(ctx, other)
	require.NoError(t, err)

	rows, err := repo.ByMonth(ctx, "2025-02", "")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = repo.ByMonth(ctx, "2025-02", "pe-wang")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pe-wang", rows[0].ProjectEngineer)

	_, err = repo.ByMonth(ctx, "03-2025", "")
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = repo.ByMonth(ctx, "2025-2", "")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestMonthRangeLeapYear(t *testing.T) {
	start, end, err := monthRange("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", start)
	assert.Equal(t, "2024-02-29", end)

	start, end, err = monthRange("2025-02")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", start)
	assert.Equal(t, "2025-02-28", end)
}

func TestAllUnknownRangeIsEmptySlice(t *testing.T) {
	repo := newReservationRepo(t)

	rows, err := repo.All(context.Background(), "decade", "", "")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestAllCreatorFilter(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	mine := testInput("2025-04-01", "T1", 1)
	_, _, err := repo.CreateBatch(ctx, mine)
	require.NoError(t, err)

	theirs := testInput("2025-04-01", "T2", 1)
	theirs.ReservateBy = "te-li"
	_, _, err = repo.CreateBatch(ctx, theirs)
	require.NoError(t, err)

	rows, err := repo.All(ctx, "all", "", "te-li")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "T2", rows[0].TimeSlot)

	rows, err = repo.All(ctx, "all", "pe-zhang", "te-li")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPaginated(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	for station := int64(1); station <= 12; station++ {
		_, _, err := repo.CreateBatch(ctx, testInput("2025-05-05", "T1", station))
		require.NoError(t, err)
	}

	page, err := repo.Paginated(ctx, "all", "", "", 2, 5)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 12, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasPreviousPage)
	assert.True(t, page.HasNextPage)

	last, err := repo.Paginated(ctx, "all", "", "", 3, 5)
	require.NoError(t, err)
	assert.Len(t, last.Items, 2)
	assert.False(t, last.HasNextPage)
}

func TestPaginatedCoercesBadPageArgs(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	_, _, err := repo.CreateBatch(ctx, testInput("2025-05-06", "T1", 1))
	require.NoError(t, err)

	page, err := repo.Paginated(ctx, "all", "", "", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, 10, page.PageSize)
	assert.Len(t, page.Items, 1)
}

func TestByStationAndMonth(t *testing.T) {
	repo := newReservationRepo(t)
	ctx := context.Background()

	_, _, err := repo.CreateBatch(ctx, testInput("2025-06-10", "T1", 7))
	require.NoError(t, err)
	_, _, err = repo.CreateBatch(ctx, testInput("2025-06-10", "T1", 8))
	require.NoError(t, err)
	_, _, err = repo.CreateBatch(ctx, testInput("2025-07-01", "T1", 7))
	require.NoError(t, err)

	rows, err := repo.ByStationAndMonth(ctx, 7, "2025-06")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].StationID)
	assert.Equal(t, "2025-06-10", rows[0].ReservationDate)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/model"
)

// ReservationRepo is the booking core.  It owns the conflict rule — no two
// non-cancelled reservations may share (station_id, reservation_date,
// time_slot) — and enforces it with conditional inserts inside a single
// transaction, relying on SQLite's writer serialization rather than any
// application-level lock.
type ReservationRepo struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// NewReservationRepo returns a ReservationRepo bound to the Biz database.
func NewReservationRepo(db *sql.DB, logger *zerolog.Logger) *ReservationRepo {
	return &ReservationRepo{db: db, logger: logger}
}

// SlotOutcome records what happened to one resolved slot of a booking
// request.  The HTTP layer only reports the aggregate inserted count, but
// keeping the per-slot list makes the best-effort batch policy testable.
type SlotOutcome struct {
	TimeSlot string
	Inserted bool
}

const reservationColumns = `id, reservation_date, time_slot, station_id, client_name,
       product_name, tests, job_no, project_engineer, testing_engineer,
       purpose_description, contact_name, contact_phone, sales, reservate_by,
       reservation_status, created_on, updated_on`

// insertIfFreeSQL inserts one reservation row only when the
// (station, date, slot) triple is not already taken by a non-cancelled row.
// The existence check and the insert are a single statement, so there is no
// check-then-insert window for a concurrent caller to slip through.
const insertIfFreeSQL = `
INSERT INTO reservations (
    reservation_date, time_slot, station_id, client_name, product_name,
    tests, job_no, project_engineer, testing_engineer, purpose_description,
    contact_name, contact_phone, sales, reservate_by, reservation_status
)
SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
WHERE NOT EXISTS (
    SELECT 1 FROM reservations
    WHERE station_id = ? AND reservation_date = ? AND time_slot = ?
      AND reservation_status != 'cancelled'
)`

// CreateBatch expands a booking request into one row per time slot and
// inserts them all inside one transaction.  Slots whose triple is already
// occupied are skipped silently (the insert affects zero rows); any
// structural failure rolls back the whole batch.  This best-effort policy
// means the caller learns how many rows were actually inserted (0..N), not
// which specific slots were taken.
func (r *ReservationRepo) CreateBatch(ctx context.Context, in model.ReservationInput) (int, []SlotOutcome, error) {
	slots := splitSlots(in.TimeSlot)
	if len(slots) == 0 {
		return 0, nil, ErrNoTimeSlot
	}
	status := in.ReservationStatus
	if status == "" {
		status = model.StatusNormal
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error().Err(err).Msg("begin reservation batch")
		return 0, nil, err
	}

	inserted := 0
	outcomes := make([]SlotOutcome, 0, len(slots))
	for _, slot := range slots {
		res, execErr := tx.ExecContext(ctx, insertIfFreeSQL,
			in.ReservationDate, slot, in.StationID, in.ClientName, in.ProductName,
			in.Tests, in.JobNo, in.ProjectEngineer, in.TestingEngineer, in.PurposeDescription,
			in.ContactName, in.ContactPhone, in.Sales, in.ReservateBy, status,
			in.StationID, in.ReservationDate, slot,
		)
		if execErr != nil {
			_ = tx.Rollback()
			r.logger.Error().Err(execErr).
				Str("date", in.ReservationDate).Str("slot", slot).Int64("station", in.StationID).
				Msg("reservation batch insert failed")
			return 0, nil, fmt.Errorf("insert reservation slot %s: %w", slot, execErr)
		}
		n, execErr := res.RowsAffected()
		if execErr != nil {
			_ = tx.Rollback()
			return 0, nil, execErr
		}
		inserted += int(n)
		outcomes = append(outcomes, SlotOutcome{TimeSlot: slot, Inserted: n > 0})
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error().Err(err).Msg("commit reservation batch")
		return 0, nil, err
	}
	return inserted, outcomes, nil
}

// Update rewrites the full record, matching on both id and the previously
// read updated_on value so a stale client cannot overwrite a newer write.
// Zero matched rows surfaces as ErrNotFoundOrStale; "not found" and
// "concurrently modified" are deliberately not distinguished.
func (r *ReservationRepo) Update(ctx context.Context, res model.Reservation) error {
	const q = `UPDATE reservations SET
	    reservation_date = ?, time_slot = ?, station_id = ?, client_name = ?,
	    product_name = ?, tests = ?, job_no = ?, project_engineer = ?,
	    testing_engineer = ?, purpose_description = ?, contact_name = ?,
	    contact_phone = ?, sales = ?, reservate_by = ?, reservation_status = ?,
	    updated_on = (strftime('%Y-%m-%d %H:%M:%f','now','localtime'))
	WHERE id = ? AND updated_on = ?`
	result, err := r.db.ExecContext(ctx, q,
		res.ReservationDate, res.TimeSlot, res.StationID, res.ClientName,
		res.ProductName, res.Tests, res.JobNo, res.ProjectEngineer,
		res.TestingEngineer, res.PurposeDescription, res.ContactName,
		res.ContactPhone, res.Sales, res.ReservateBy, res.ReservationStatus,
		res.ID, res.UpdatedOn,
	)
	if err != nil {
		r.logger.Error().Err(err).Int64("id", res.ID).Msg("update reservation")
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFoundOrStale
	}
	return nil
}

// Delete hard-deletes a reservation.  Deleting an id that does not exist
// returns false rather than an error, making the call idempotent.
func (r *ReservationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("id", id).Msg("delete reservation")
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ByDate returns all reservations on the given ISO date.
func (r *ReservationRepo) ByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_date = ?`
	return r.query(ctx, q, date)
}

// ByMonth returns reservations within the calendar month ("2025-02"),
// optionally filtered by project engineer (empty string = no filter).  The
// month end is computed with calendar arithmetic, so leap years are handled.
func (r *ReservationRepo) ByMonth(ctx context.Context, month, projectEngineer string) ([]model.Reservation, error) {
	start, end, err := monthRange(month)
	if err != nil {
		return nil, err
	}
	return r.byRange(ctx, start, end, projectEngineer)
}

// ByYear returns reservations within the calendar year ("2025"), optionally
// filtered by project engineer.
func (r *ReservationRepo) ByYear(ctx context.Context, year, projectEngineer string) ([]model.Reservation, error) {
	return r.byRange(ctx, year+"-01-01", year+"-12-31", projectEngineer)
}

func (r *ReservationRepo) byRange(ctx context.Context, start, end, projectEngineer string) ([]model.Reservation, error) {
	if projectEngineer == "" {
		q := `SELECT ` + reservationColumns + ` FROM reservations
		      WHERE reservation_date >= ? AND reservation_date <= ?
		      ORDER BY reservation_date DESC`
		return r.query(ctx, q, start, end)
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE reservation_date >= ? AND reservation_date <= ? AND project_engineer = ?
	      ORDER BY reservation_date DESC`
	return r.query(ctx, q, start, end, projectEngineer)
}

// All resolves a time-range keyword ("month", "year", "all") to the matching
// query.  For "all", the optional project-engineer and creator filters are
// independently combinable, giving four distinct SQL shapes.  An unknown
// keyword yields an empty slice.
func (r *ReservationRepo) All(ctx context.Context, timeRange, projectEngineer, createdBy string) ([]model.Reservation, error) {
	switch strings.ToLower(timeRange) {
	case "month":
		return r.ByMonth(ctx, time.Now().Format("2006-01"), projectEngineer)
	case "year":
		return r.ByYear(ctx, time.Now().Format("2006"), projectEngineer)
	case "all":
		switch {
		case projectEngineer == "" && createdBy == "":
			q := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY reservation_date DESC`
			return r.query(ctx, q)
		case createdBy == "":
			q := `SELECT ` + reservationColumns + ` FROM reservations
			      WHERE project_engineer = ? ORDER BY reservation_date DESC`
			return r.query(ctx, q, projectEngineer)
		case projectEngineer == "":
			q := `SELECT ` + reservationColumns + ` FROM reservations
			      WHERE reservate_by = ? ORDER BY reservation_date DESC`
			return r.query(ctx, q, createdBy)
		default:
			q := `SELECT ` + reservationColumns + ` FROM reservations
			      WHERE project_engineer = ? AND reservate_by = ? ORDER BY reservation_date DESC`
			return r.query(ctx, q, projectEngineer, createdBy)
		}
	default:
		return []model.Reservation{}, nil
	}
}

// Paginated wraps All with in-memory pagination.  Page arguments below 1 are
// coerced to the defaults (1 and 10) rather than rejected; this mirrors the
// lenient contract the UI depends on and is a documented design choice, not
// a robustness guarantee.
func (r *ReservationRepo) Paginated(ctx context.Context, timeRange, projectEngineer, createdBy string, pageNumber, pageSize int) (model.PaginatedResult[model.Reservation], error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	all, err := r.All(ctx, timeRange, projectEngineer, createdBy)
	if err != nil {
		return model.PaginatedResult[model.Reservation]{}, err
	}
	return model.Paginate(all, pageNumber, pageSize), nil
}

// ByStationAndMonth returns a station's reservations within a calendar
// month.
func (r *ReservationRepo) ByStationAndMonth(ctx context.Context, stationID int64, month string) ([]model.Reservation, error) {
	start, end, err := monthRange(month)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE station_id = ? AND reservation_date >= ? AND reservation_date <= ?
	      ORDER BY reservation_date DESC`
	return r.query(ctx, q, stationID, start, end)
}

// StationStatusForDate emits an occupied marker for every slot a
// non-cancelled reservation holds on the given station and date.  Slots
// absent from the result are implicitly free.
func (r *ReservationRepo) StationStatusForDate(ctx context.Context, stationID int64, date string) ([]model.StationStatus, error) {
	const q = `SELECT time_slot FROM reservations
	           WHERE station_id = ? AND reservation_date = ? AND reservation_status != 'cancelled'`
	rows, err := r.db.QueryContext(ctx, q, stationID, date)
	if err != nil {
		r.logger.Error().Err(err).Int64("station", stationID).Str("date", date).Msg("station status query")
		return nil, err
	}
	defer rows.Close()
	statuses := make([]model.StationStatus, 0)
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		statuses = append(statuses, model.StationStatus{Occupied: true, TimeSlot: slot})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// SlotFree reports whether a single (station, date, slot) triple is
// unoccupied.
func (r *ReservationRepo) SlotFree(ctx context.Context, stationID int64, date, slot string) (bool, error) {
	const q = `SELECT COUNT(1) FROM reservations
	           WHERE station_id = ? AND reservation_date = ? AND time_slot = ?
	             AND reservation_status != 'cancelled'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, stationID, date, slot).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *ReservationRepo) query(ctx context.Context, q string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("reservation query")
		return nil, err
	}
	defer rows.Close()
	// Always a non-nil slice: list endpoints serialize [] for no matches.
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var (
			res                            model.Reservation
			clientName, productName, jobNo sql.NullString
			purpose, contactName, phone    sql.NullString
			sales                          sql.NullString
		)
		if err := rows.Scan(
			&res.ID, &res.ReservationDate, &res.TimeSlot, &res.StationID, &clientName,
			&productName, &res.Tests, &jobNo, &res.ProjectEngineer, &res.TestingEngineer,
			&purpose, &contactName, &phone, &sales, &res.ReservateBy,
			&res.ReservationStatus, &res.CreatedOn, &res.UpdatedOn,
		); err != nil {
			return nil, err
		}
		res.ClientName = clientName.String
		res.ProductName = productName.String
		res.JobNo = jobNo.String
		res.PurposeDescription = purpose.String
		res.ContactName = contactName.String
		res.ContactPhone = phone.String
		res.Sales = sales.String
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// splitSlots breaks a comma-delimited slot list into trimmed, non-empty slot
// codes.
func splitSlots(s string) []string {
	parts := strings.Split(s, ",")
	slots := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			slots = append(slots, p)
		}
	}
	return slots
}

// monthRange converts "YYYY-MM" into its first and last ISO dates.  The last
// day comes from time.Date with day zero of the following month, which
// respects leap years.
func monthRange(month string) (string, string, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return month + "-01", last.Format("2006-01-02"), nil
}

package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/model"
)

// SeventRepo provides CRUD for special events (maintenance/blackout
// windows).  A NULL station_id marks a lab-wide block.
type SeventRepo struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewSeventRepo(db *sql.DB, logger *zerolog.Logger) *SeventRepo {
	return &SeventRepo{db: db, logger: logger}
}

const seventColumns = `id, name, from_date, to_date, station_id, created_by, updated_by, created_on, updated_on`

// All returns every special event.
func (r *SeventRepo) All(ctx context.Context) ([]model.Sevent, error) {
	return r.query(ctx, `SELECT `+seventColumns+` FROM s_events`)
}

// ByID fetches one event; sql.ErrNoRows propagates on a miss.
func (r *SeventRepo) ByID(ctx context.Context, id int64) (model.Sevent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+seventColumns+` FROM s_events WHERE id = ?`, id)
	return scanSevent(row)
}

// ByStationID returns the events blocking a specific station.  Lab-wide
// events (NULL station_id) are not included; callers merge them separately
// when rendering availability.
func (r *SeventRepo) ByStationID(ctx context.Context, stationID int64) ([]model.Sevent, error) {
	return r.query(ctx, `SELECT `+seventColumns+` FROM s_events WHERE station_id = ?`, stationID)
}

// Create inserts an event and reports whether a row was written.
func (r *SeventRepo) Create(ctx context.Context, in model.SeventInput) (bool, error) {
	const q = `INSERT INTO s_events (name, from_date, to_date, station_id, created_by, updated_by)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, in.Name, in.FromDate, in.ToDate, nullableID(in.StationID), in.CreatedBy, in.UpdatedBy)
	if err != nil {
		r.logger.Error().Err(err).Msg("create sevent")
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Update rewrites an event.  False means the id matched nothing.
func (r *SeventRepo) Update(ctx context.Context, in model.SeventInput) (bool, error) {
	const q = `UPDATE s_events SET
	           name = ?, from_date = ?, to_date = ?, station_id = ?, created_by = ?, updated_by = ?,
	           updated_on = (strftime('%Y-%m-%d %H:%M:%f','now','localtime'))
	           WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, in.Name, in.FromDate, in.ToDate, nullableID(in.StationID), in.CreatedBy, in.UpdatedBy, in.ID)
	if err != nil {
		r.logger.Error().Err(err).Int64("id", in.ID).Msg("update sevent")
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Delete removes an event row.
func (r *SeventRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM s_events WHERE id = ?`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("id", id).Msg("delete sevent")
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *SeventRepo) query(ctx context.Context, q string, args ...interface{}) ([]model.Sevent, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("sevent query")
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Sevent, 0)
	for rows.Next() {
		ev, err := scanSevent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSevent(row rowScanner) (model.Sevent, error) {
	var (
		ev        model.Sevent
		stationID sql.NullInt64
		updatedBy sql.NullString
	)
	if err := row.Scan(&ev.ID, &ev.Name, &ev.FromDate, &ev.ToDate, &stationID,
		&ev.CreatedBy, &updatedBy, &ev.CreatedOn, &ev.UpdatedOn); err != nil {
		return model.Sevent{}, err
	}
	if stationID.Valid {
		id := stationID.Int64
		ev.StationID = &id
	}
	ev.UpdatedBy = updatedBy.String
	return ev, nil
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

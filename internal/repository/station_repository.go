package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/model"
)

// StationRepo provides CRUD for test stations.  Deleting a station does NOT
// cascade to its reservations or special events: those keep their station_id
// and become dangling references the read paths tolerate.  Callers that care
// must clean up themselves.
type StationRepo struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewStationRepo(db *sql.DB, logger *zerolog.Logger) *StationRepo {
	return &StationRepo{db: db, logger: logger}
}

const stationColumns = `id, name, short_name, description, photo_path, status, created_on, updated_on`

// All returns every station, newest first.
func (r *StationRepo) All(ctx context.Context) ([]model.Station, error) {
	q := `SELECT ` + stationColumns + ` FROM stations ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("list stations")
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Station, 0)
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ByID fetches one station.  sql.ErrNoRows propagates on a miss.
func (r *StationRepo) ByID(ctx context.Context, id int64) (model.Station, error) {
	q := `SELECT ` + stationColumns + ` FROM stations WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanStation(row)
}

// ShortNameByID returns the station's short name, or an empty string when
// the station does not exist or has none.  The empty string is a valid
// answer, not a lookup failure; callers must cope with it.
func (r *StationRepo) ShortNameByID(ctx context.Context, id int64) (string, error) {
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT short_name FROM stations WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.logger.Error().Err(err).Int64("id", id).Msg("station short name")
		return "", err
	}
	return name.String, nil
}

// Create inserts a station and reports whether a row was written.
func (r *StationRepo) Create(ctx context.Context, s model.Station) (bool, error) {
	const q = `INSERT INTO stations (name, short_name, description, photo_path, status)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, s.Name, s.ShortName, s.Description, s.PhotoPath, s.Status)
	if err != nil {
		r.logger.Error().Err(err).Msg("create station")
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Update rewrites a station's mutable fields.  False means the id matched
// nothing.
func (r *StationRepo) Update(ctx context.Context, s model.Station) (bool, error) {
	const q = `UPDATE stations SET
	           name = ?, short_name = ?, description = ?, photo_path = ?, status = ?,
	           updated_on = (strftime('%Y-%m-%d %H:%M:%f','now','localtime'))
	           WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, s.Name, s.ShortName, s.Description, s.PhotoPath, s.Status, s.ID)
	if err != nil {
		r.logger.Error().Err(err).Int64("id", s.ID).Msg("update station")
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Delete removes a station row.  Reservations and events referencing it are
// left in place.
func (r *StationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stations WHERE id = ?`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("id", id).Msg("delete station")
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Ping verifies the Biz database connection with a trivial query.
func (r *StationRepo) Ping(ctx context.Context) bool {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		r.logger.Error().Err(err).Msg("database ping")
		return false
	}
	return true
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStation(row rowScanner) (model.Station, error) {
	var (
		s                                model.Station
		name, short, desc, photo, status sql.NullString
	)
	if err := row.Scan(&s.ID, &name, &short, &desc, &photo, &status, &s.CreatedOn, &s.UpdatedOn); err != nil {
		return model.Station{}, err
	}
	s.Name = name.String
	s.ShortName = short.String
	s.Description = desc.String
	s.PhotoPath = photo.String
	s.Status = status.String
	return s, nil
}

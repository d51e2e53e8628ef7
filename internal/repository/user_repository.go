package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/model"
)

// UserRepo is the token store: it persists each user's password hash plus
// the single refresh token and its expiry.  Rotation is an overwrite of the
// one RefreshToken column — issuing a new token implicitly invalidates the
// previous one.  Concurrent rotations for the same user are serialized by
// SQLite's writer; last write wins, and the loser's next refresh is rejected
// as stale.
type UserRepo struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewUserRepo(db *sql.DB, logger *zerolog.Logger) *UserRepo {
	return &UserRepo{db: db, logger: logger}
}

const userColumns = `Id, UserName, FullName, MachineName, Team, Role, PasswordHash,
       RefreshToken, RefreshTokenExpiry, CreatedAt, LastLoginAt, IsActive`

// ByUsername fetches a user by exact username.  sql.ErrNoRows propagates on
// a miss; the auth layer folds it into the generic invalid-credentials
// outcome.
func (r *UserRepo) ByUsername(ctx context.Context, username string) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM Users WHERE UserName = ?`, username)
	return scanUser(row)
}

// ByID fetches a user by id.
func (r *UserRepo) ByID(ctx context.Context, id int64) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM Users WHERE Id = ?`, id)
	return scanUser(row)
}

// All returns every user.
func (r *UserRepo) All(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM Users`)
	if err != nil {
		r.logger.Error().Err(err).Msg("list users")
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a user with the given password hash and returns the new id.
// A username collision surfaces as ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, in model.UserInput, passwordHash string) (int64, error) {
	const q = `INSERT INTO Users (UserName, FullName, MachineName, Team, Role, PasswordHash)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, in.UserName, in.FullName, in.MachineName, in.Team, in.Role, passwordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, ErrUserExists
		}
		r.logger.Error().Err(err).Str("username", in.UserName).Msg("create user")
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateRefreshToken stores a user's refresh token and its epoch-millis
// expiry.  Passing an empty token and zero expiry revokes the token family:
// nothing stored matches any presented value afterwards.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID int64, refreshToken string, expiry int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE Users SET RefreshToken = ?, RefreshTokenExpiry = ? WHERE Id = ?`,
		refreshToken, expiry, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user", userID).Msg("update refresh token")
	}
	return err
}

// UpdatePassword replaces a user's password hash.  Outstanding refresh
// tokens are left untouched.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE Users SET PasswordHash = ? WHERE Id = ?`, passwordHash, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user", userID).Msg("update password")
	}
	return err
}

// TouchLastLogin records a successful login time.
func (r *UserRepo) TouchLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE Users SET LastLoginAt = datetime('now') WHERE Id = ?`, userID)
	return err
}

// SetActive enables or disables a user account.
func (r *UserRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE Users SET IsActive = ? WHERE Id = ?`, active, userID)
	return err
}

// Remove hard-deletes a user account.
func (r *UserRepo) Remove(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM Users WHERE Id = ?`, userID)
	return err
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                           model.User
		fullName, machineName, team sql.NullString
		refreshToken, lastLogin     sql.NullString
	)
	err := row.Scan(&u.ID, &u.UserName, &fullName, &machineName, &team, &u.Role,
		&u.PasswordHash, &refreshToken, &u.RefreshTokenExpiry, &u.CreatedAt,
		&lastLogin, &u.IsActive)
	if err != nil {
		return model.User{}, err
	}
	u.FullName = fullName.String
	u.MachineName = machineName.String
	u.Team = team.String
	u.RefreshToken = refreshToken.String
	u.LastLoginAt = lastLogin.String
	return u, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// Open opens (creating if necessary) a SQLite database at path and verifies
// the connection.  WAL mode plus a busy timeout lets concurrent HTTP
// handlers share the single-writer engine without stepping on each other;
// the engine's writer serialization is the only locking the service uses.
func Open(path string, logger *zerolog.Logger) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Pool settings; SQLite gains nothing from a large pool.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info().Str("path", path).Msg("database opened")
	return db, nil
}

// userSchema bootstraps the User database.  RefreshToken is CHAR(88): the
// base64 form of a 64-byte random value.  RefreshTokenExpiry is epoch millis.
const userSchema = `
CREATE TABLE IF NOT EXISTS Users (
    Id INTEGER PRIMARY KEY AUTOINCREMENT,
    UserName VARCHAR(50) NOT NULL UNIQUE,
    FullName VARCHAR(100),
    MachineName VARCHAR(50),
    Team VARCHAR(50),
    Role VARCHAR(20) NOT NULL CHECK(Role IN ('Engineer','Admin','Manager','User')) DEFAULT 'User',
    PasswordHash CHAR(60) NOT NULL,
    RefreshToken CHAR(88),
    RefreshTokenExpiry INTEGER NOT NULL DEFAULT 0,
    CreatedAt TEXT NOT NULL DEFAULT (datetime('now')),
    LastLoginAt TEXT,
    IsActive BOOLEAN NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS IX_Users_UserName ON Users (UserName);
CREATE INDEX IF NOT EXISTS IX_Users_RefreshToken ON Users (RefreshToken);
`

// bizSchema bootstraps the Biz database.  updated_on carries millisecond
// precision because it doubles as the optimistic-concurrency token on
// reservation updates.
const bizSchema = `
CREATE TABLE IF NOT EXISTS reservations (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    reservation_date VARCHAR(24) NOT NULL,
    time_slot VARCHAR(24) NOT NULL,
    station_id INTEGER NOT NULL,
    client_name VARCHAR(256),
    product_name TEXT,
    tests TEXT NOT NULL,
    job_no VARCHAR(128),
    project_engineer VARCHAR(128) NOT NULL,
    testing_engineer VARCHAR(128) NOT NULL,
    purpose_description TEXT,
    contact_name VARCHAR(128),
    contact_phone VARCHAR(128),
    sales VARCHAR(128),
    reservate_by VARCHAR(128) NOT NULL,
    reservation_status VARCHAR(128) DEFAULT ('normal'),
    created_on TEXT DEFAULT (datetime('now','localtime')),
    updated_on TEXT DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now','localtime'))
);
CREATE INDEX IF NOT EXISTS IX_Reservations_Triple
    ON reservations (station_id, reservation_date, time_slot);

CREATE TABLE IF NOT EXISTS stations (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    name TEXT,
    short_name TEXT,
    description TEXT,
    photo_path TEXT,
    status TEXT,
    created_on TEXT DEFAULT (datetime('now','localtime')),
    updated_on TEXT DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now','localtime'))
);

CREATE TABLE IF NOT EXISTS s_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    name TEXT NOT NULL,
    from_date TEXT NOT NULL,
    to_date TEXT NOT NULL,
    station_id INTEGER,
    created_by TEXT NOT NULL,
    updated_by TEXT,
    created_on TEXT DEFAULT (datetime('now','localtime')),
    updated_on TEXT DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now','localtime'))
);
`

// InitUserSchema creates the Users table and indexes if they do not exist.
func InitUserSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, userSchema)
	return err
}

// InitBizSchema creates the reservations, stations and s_events tables if
// they do not exist.
func InitBizSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, bizSchema)
	return err
}

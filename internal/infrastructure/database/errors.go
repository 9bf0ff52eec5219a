package database

import "errors"

// ErrNotSQLite is returned when a session's driver connection is not a
// go-sqlite3 connection.
var ErrNotSQLite = errors.New("database: driver connection is not SQLite")

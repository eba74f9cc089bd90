// Package persistence provides the record collection behind the tracker.
// Job applications and user accounts live in a SQL database accessed with sqlx,
// SQLite (WAL mode) by default and PostgreSQL via pgx when configured.
// Every job query is scoped by owner, a record is never visible to another user.
package persistence

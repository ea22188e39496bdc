// Package migrations embeds the SQL schema for the server (postgres) and the client cache (sqlite).
package migrations

import "embed"

// FS holds both migration sets; goose is pointed at PostgresDir or SQLiteDir.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)

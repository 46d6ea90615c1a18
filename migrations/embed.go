// Package migrations embeds the SQL schema migrations for every supported
// database dialect.
package migrations

import "embed"

// FS holds the embedded migration files, one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

const (
	DirPostgres = "postgres"
	DirSQLite   = "sqlite"
)

// Package migrations embeds the demo schema: the tables the built-in page
// types, seeders and importer expect. The engine itself ships no schema;
// deployments with their own tables pass their own migration set to
// migrate.Apply instead of this one.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Dir is the directory inside FS holding the .sql files.
const Dir = "sql"

// FS returns the embedded migration files.
func FS() fs.FS {
	return migrationsFS
}

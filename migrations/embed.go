// Package migrations embeds the schema migrations for each supported driver.
// Files live in a directory named after the database/sql driver.
package migrations

import "embed"

//go:embed sqlite3/*.sql mysql/*.sql
var FS embed.FS

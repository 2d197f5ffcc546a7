// Package migrations registers the schema changes of the comment store.
package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations collects every schema and seed migration, in file name order.
var Migrations = migrate.NewMigrations() //nolint:gochecknoglobals // registry filled by init functions

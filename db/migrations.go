// Package db embeds the schema migrations so the migration binary needs no
// files next to it.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

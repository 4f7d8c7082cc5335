// Package migrations embeds the SQL migration files for the storefront schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

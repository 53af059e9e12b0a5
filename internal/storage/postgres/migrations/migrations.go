// Package migrations embeds the goose migration files for the domain
// engine's schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

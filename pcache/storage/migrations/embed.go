package migrations

import "embed"

// FS contains the embedded goose migrations for the cache tables.
//
//go:embed *.sql
var FS embed.FS

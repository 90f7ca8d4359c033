package migrations

import "embed"

// FS contains the definition database schema.
//
//go:embed *.sql
var FS embed.FS

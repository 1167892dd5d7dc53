// Package migrations embeds the SQL schema files into the binary.
//
// Pass FS to database.DB.Migrate at startup.
package migrations

import "embed"

// FS holds every *.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS

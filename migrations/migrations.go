// Package migrations embeds the SQL schema and procedure catalog.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

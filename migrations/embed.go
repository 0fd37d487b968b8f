// Package migrations embeds the SQL migration files so schema setup works
// the same way in server bootstrap and in repository tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

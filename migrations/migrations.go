// Package migrations embeds the eval-run store's SQL migrations, named
// YYYYMMDDHHMMSS_description.sql and applied in order by goose when run
// persistence is enabled.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

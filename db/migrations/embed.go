// Package migrations embeds the SQL migration files applied by goose
// at server startup.
package migrations

import "embed"

// Files contains all SQL migration files in ascending order by filename.
//
//go:embed *.sql
var Files embed.FS

// Package migrations embeds the SQL migration set the bun migrator
// discovers at startup (see storage.NewMigrator).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

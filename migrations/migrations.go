// Package migrations embeds the SQL schema of the key store entry table.
package migrations

import "embed"

// FS holds one directory of migrations per SQL driver: postgresql and mysql.
//
//go:embed postgresql/*.sql mysql/*.sql
var FS embed.FS

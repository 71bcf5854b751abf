// Package migrations embeds the SQL migrations so binaries can migrate without a checkout.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql pair in this directory
//
//go:embed *.sql
var FS embed.FS

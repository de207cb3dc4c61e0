// Package migrations expone los archivos SQL embebidos para goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

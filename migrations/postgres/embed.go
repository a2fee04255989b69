// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the schema migrations for the onboarding database.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS where migrations live.
const Dir = "."

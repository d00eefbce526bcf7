// Package migrations embeds the goose SQL migrations for the users and refresh_tokens schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

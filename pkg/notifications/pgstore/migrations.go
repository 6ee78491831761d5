package pgstore

import "embed"

// MigrationsDir is the directory of Migrations holding the goose files.
const MigrationsDir = "migrations"

// Migrations holds the schema for notifications, preferences, templates and recipients.
//
//go:embed migrations/*.sql
var Migrations embed.FS

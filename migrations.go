package gamification

import "embed"

// MigrationsFS contains SQL migrations for both PostgreSQL and SQLite.
//
// Root files (data/sql/migrations/*.sql) hold the PostgreSQL DDL and the
// SQLite variants live in data/sql/migrations/sqlite/*.sql. go-persistence-bun
// selects the right set based on the dialect in use.
//
// Usage:
//
//	migrationsFS, _ := fs.Sub(gamification.MigrationsFS, "data/sql/migrations")
//	client.RegisterDialectMigrations(
//	    migrationsFS,
//	    persistence.WithDialectSourceLabel("."),
//	    persistence.WithValidationTargets("postgres", "sqlite"),
//	)
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var MigrationsFS embed.FS

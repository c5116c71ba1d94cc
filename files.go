package gamification

import "io/fs"

// GetMigrationsFS exposes the SQL migration files so host applications can
// register them with go-persistence-bun (or another migration runner).
func GetMigrationsFS() fs.FS {
	return MigrationsFS
}

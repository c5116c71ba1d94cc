package migrations

import (
	"fmt"
	"io/fs"

	gamification "github.com/goliatone/go-gamification"
)

const coreDir = "data/sql/migrations"

func init() {
	fsys, err := Core()
	if err != nil {
		panic(err)
	}
	Register(fsys)
}

// Core returns the bundled gamification migrations rooted at their
// directory. It is registered on package load.
func Core() (fs.FS, error) {
	fsys, err := fs.Sub(gamification.GetMigrationsFS(), coreDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: open %s: %w", coreDir, err)
	}
	if _, err := fs.Stat(fsys, "sqlite"); err != nil {
		return nil, fmt.Errorf("migrations: %s has no sqlite variants: %w", coreDir, err)
	}
	return fsys, nil
}

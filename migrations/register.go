package migrations

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

var (
	mu          sync.RWMutex
	filesystems []fs.FS
)

// Register records a filesystem rooted at a migrations directory (PostgreSQL
// files at the root and SQLite variants under sqlite/). Hosts feed the
// registered filesystems into go-persistence-bun via Filesystems().
func Register(fsys fs.FS) {
	if fsys == nil {
		return
	}
	mu.Lock()
	filesystems = append(filesystems, fsys)
	mu.Unlock()
}

// Filesystems returns a copy of all registered migration filesystems.
func Filesystems() []fs.FS {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]fs.FS, len(filesystems))
	copy(out, filesystems)
	return out
}

// UpFiles lists the ordered up migrations for a dialect ("postgres" or
// "sqlite").
func UpFiles(fsys fs.FS, dialect string) ([]string, error) {
	dir := "."
	if strings.EqualFold(dialect, "sqlite") {
		dir = "sqlite"
	}
	entries, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return entries, nil
}

// UpStatements reads the up migrations for a dialect and splits them into
// individual statements.
func UpStatements(fsys fs.FS, dialect string) ([]string, error) {
	files, err := UpFiles(fsys, dialect)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		out = append(out, splitStatements(string(raw))...)
	}
	return out, nil
}

func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

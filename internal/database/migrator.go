// Package database provides helpers for managing database migrations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Migrator applies plain .up.sql file migrations in lexical order.
type Migrator struct {
	db  *sql.DB
	log *slog.Logger
}

func NewMigrator(db *sql.DB, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}

	return &Migrator{db: db, log: log}
}

// ApplyDir executes every .up.sql file under dir in lexical order, each in
// its own transaction. A failed migration stops the run; the files before it
// stay committed.
func (m *Migrator) ApplyDir(ctx context.Context, dir string) error {
	names, err := ListMigrations(os.DirFS(dir), ".")
	if err != nil {
		return fmt.Errorf("read migrations dir %q: %w", dir, err)
	}

	log := m.log.With(slog.String("dir", dir))

	if len(names) == 0 {
		log.Info("no .up.sql migrations found")
		return nil
	}

	for _, name := range names {
		if err := m.apply(ctx, log, filepath.Join(dir, name)); err != nil {
			return err
		}
	}

	return nil
}

func (m *Migrator) apply(ctx context.Context, log *slog.Logger, path string) error {
	log = log.With(slog.String("file", filepath.Base(path)))
	log.Info("applying migration")

	// #nosec G304: migration paths are controlled by deployment
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %q: %w", path, err)
	}

	statement := strings.TrimSpace(string(raw))
	if statement == "" {
		log.Warn("migration is empty, skipping")
		return nil
	}

	return m.execute(ctx, log, path, statement)
}

func (m *Migrator) execute(ctx context.Context, log *slog.Logger, path, statement string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for migration %q: %w", path, err)
	}

	if _, err := tx.ExecContext(ctx, statement); err != nil {
		rollback(log, tx)
		return fmt.Errorf("execute migration %q: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		rollback(log, tx)
		return fmt.Errorf("commit migration %q: %w", path, err)
	}

	return nil
}

func rollback(log *slog.Logger, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error("rollback failed", slog.Any("error", err))
	}
}

func isUpMigration(name string) bool {
	return strings.HasSuffix(name, ".up.sql")
}

// ListMigrations returns the .up.sql files under root in lexical order.
func ListMigrations(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isUpMigration(entry.Name()) {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	return names, nil
}

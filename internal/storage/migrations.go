package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is an incremental, idempotent schema change applied after the
// baseline schemaV1 is in place. The shape — Version/Description/Apply —
// mirrors the versioned migration interface this codebase's storage
// layer has always used, adapted here from an INFO-FOR-DB-querying
// backend to sqlite_master / PRAGMA table_info introspection.
type Migration interface {
	Version() int
	Description() string
	Apply(ctx context.Context, tx *sql.Tx) error
}

// migrations lists the incremental changes in ascending version order.
// The baseline schemaV1 (schema.go) is version 1; anything added after initial
// release gets appended here rather than edited into schemaV1, so
// existing databases upgrade in place.
var migrations = []Migration{
	textIndexWeightDefaultMigration{},
}

// tableExists reports whether a table is present, the sqlite analogue of
// the reference migration runner's CheckTableExists helper.
func tableExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// columnExists reports whether a table has the named column, the sqlite
// analogue of the reference migration runner's checkFieldExists helper.
func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dfltValue  any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// migrate applies schemaV1 then every pending entry in migrations inside
// its own transaction, recording the new version on success.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("apply baseline schema: %w", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 1) FROM schema_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version() <= version {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version(), err)
		}
		if err := m.Apply(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version(), m.Description(), err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.Version()); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version(), err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version(), err)
		}
		s.log.Info("applied migration", "version", m.Version(), "description", m.Description())
	}
	return nil
}

// textIndexWeightDefaultMigration is a placeholder second migration
// demonstrating the idempotent-apply pattern; it ensures the weight
// column exists with its documented default even on databases created
// before weighting was added to text_index_config.
type textIndexWeightDefaultMigration struct{}

func (textIndexWeightDefaultMigration) Version() int { return 2 }
func (textIndexWeightDefaultMigration) Description() string {
	return "ensure text_index_config.weight column exists"
}
func (textIndexWeightDefaultMigration) Apply(ctx context.Context, tx *sql.Tx) error {
	ok, err := tableExists(ctx, tx, "text_index_config")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	has, err := columnExists(ctx, tx, "text_index_config", "weight")
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = tx.ExecContext(ctx, `ALTER TABLE text_index_config ADD COLUMN weight REAL NOT NULL DEFAULT 1.0`)
	return err
}

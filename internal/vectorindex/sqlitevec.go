package vectorindex

import (
	"database/sql"
	"fmt"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

var sqliteVecOnce sync.Once

// SQLiteVec backs a vector index with the `vec0` virtual table from
// sqlite-vec (§4.10's "memory-mapped tree-based" backend), grounded on
// the same other_examples store that pairs sqlite3 with sqlite-vec for
// a relational-store-backed graph.
type SQLiteVec struct {
	dim    int
	metric Metric
	db     *sql.DB
	table  string
}

func NewSQLiteVec(dim int, metric Metric) (*SQLiteVec, error) {
	sqliteVecOnce.Do(func() { sqlite_vec.Auto() })
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open sqlite-vec connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteVec{dim: dim, metric: metric, db: db, table: "vec_items"}
	if _, err := db.Exec(fmt.Sprintf(`CREATE VIRTUAL TABLE %s USING vec0(embedding float[%d])`, s.table, dim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorindex: create vec0 table: %w", err)
	}
	return s, nil
}

func (s *SQLiteVec) Dimension() int { return s.dim }
func (s *SQLiteVec) Metric() Metric { return s.metric }

func (s *SQLiteVec) Len() int {
	var n int
	_ = s.db.QueryRow(fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&n)
	return n
}

func (s *SQLiteVec) Add(id int64, vector []float32) error {
	if err := validateDimension(s.dim, len(vector)); err != nil {
		return err
	}
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return fmt.Errorf("vectorindex: serialize vector: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, s.table), id); err != nil {
		return fmt.Errorf("vectorindex: replace vector: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, s.table), id, blob); err != nil {
		return fmt.Errorf("vectorindex: insert vector: %w", err)
	}
	return nil
}

func (s *SQLiteVec) Remove(id int64) error {
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, s.table), id)
	if err != nil {
		return fmt.Errorf("vectorindex: remove vector: %w", err)
	}
	return nil
}

func (s *SQLiteVec) Search(vector []float32, k int) ([]Candidate, error) {
	if err := validateDimension(s.dim, len(vector)); err != nil {
		return nil, err
	}
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: serialize query vector: %w", err)
	}
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT rowid, distance FROM %s WHERE embedding MATCH ? AND k = ? ORDER BY distance`, s.table),
		blob, k)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: knn search: %w", err)
	}
	defer rows.Close()
	var out []Candidate
	for rows.Next() {
		var id int64
		var dist float64
		if err := rows.Scan(&id, &dist); err != nil {
			return nil, err
		}
		out = append(out, Candidate{ID: id, Score: dist})
	}
	return out, rows.Err()
}

// Persist/Load are no-ops: sqlite-vec's vec0 virtual table already lives
// in a durable SQLite file when opened against one; the in-memory
// connection this backend uses for ANN scratch space is rebuilt from
// vector_entries by the manager on open, same as the brute-force backend.
func (s *SQLiteVec) Persist(path string) error { return nil }
func (s *SQLiteVec) Load(path string) error    { return nil }

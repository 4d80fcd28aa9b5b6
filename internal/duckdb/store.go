// Package duckdb exports flank results to a DuckDB database so that runs can
// be queried with SQL after the BED output has been written.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding exported flank results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS flank_run_ids START 1`,
		`CREATE TABLE IF NOT EXISTS flank_runs (
			run_id BIGINT PRIMARY KEY DEFAULT nextval('flank_run_ids'),
			input_path VARCHAR,
			input_size BIGINT,
			input_modtime TIMESTAMP,
			bp_limit BIGINT,
			stream VARCHAR,
			policy VARCHAR,
			symmetric_strand BOOLEAN,
			by_chrom BOOLEAN,
			interval_count BIGINT,
			created_at TIMESTAMP DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS flank_results (
			run_id BIGINT,
			chrom VARCHAR,
			flank_start BIGINT,
			flank_end BIGINT,
			name VARCHAR,
			gene_name VARCHAR,
			query_end VARCHAR,
			distance BIGINT,
			strand VARCHAR,
			gene_start BIGINT,
			gene_end BIGINT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

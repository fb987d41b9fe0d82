package metrics

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Store provides SQLite-backed persistence for voyage and step records, so
// runs accumulate in one queryable place across experiments.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the results database at path and migrates it.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS voyages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			simulated_hours REAL NOT NULL,
			distance_nm REAL NOT NULL,
			reached_goal INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			voyage_id INTEGER NOT NULL REFERENCES voyages(id),
			step INTEGER NOT NULL,
			scenarios INTEGER NOT NULL,
			dropped INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			heading REAL NOT NULL,
			duration_ms INTEGER NOT NULL,
			tree_reused INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create tables: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}

// SaveVoyage inserts one voyage record and returns its row id.
func (s *Store) SaveVoyage(record VoyageMetric) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO voyages (session, start_time, end_time, duration_ms, steps, simulated_hours, distance_nm, reached_goal)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Session,
		record.StartTime.UTC().Format(time.RFC3339Nano),
		record.EndTime.UTC().Format(time.RFC3339Nano),
		record.Duration.Milliseconds(),
		record.Steps,
		record.SimulatedHours,
		record.Distance,
		boolToInt(record.ReachedGoal),
	)
	if err != nil {
		return -1, fmt.Errorf("save voyage: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return -1, fmt.Errorf("save voyage: last insert id: %w", err)
	}
	return id, nil
}

// SaveSteps inserts a voyage's step records in one transaction.
func (s *Store) SaveSteps(voyageID int64, records []StepMetric) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save steps: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, record := range records {
		_, err = tx.Exec(
			`INSERT INTO steps (voyage_id, step, scenarios, dropped, iterations, heading, duration_ms, tree_reused)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			voyageID,
			record.Step,
			record.Scenarios,
			record.Dropped,
			record.Iterations,
			record.Heading,
			record.Duration.Milliseconds(),
			boolToInt(record.TreeReused),
		)
		if err != nil {
			return fmt.Errorf("save steps: step %d: %w", record.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save steps: commit: %w", err)
	}
	return nil
}

// CountSteps returns the number of stored step records for a voyage.
func (s *Store) CountSteps(voyageID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM steps WHERE voyage_id = ?`, voyageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count steps: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

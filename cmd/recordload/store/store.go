package store

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/meddata/recordload/cmd/recordload/extract"
)

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	id                TEXT PRIMARY KEY,
	name              TEXT,
	gender            TEXT,
	birth_date        TEXT,
	deceased_datetime TEXT,
	marital_status    TEXT,
	address           TEXT
);

CREATE TABLE IF NOT EXISTS encounters (
	encounter_id TEXT PRIMARY KEY,
	status       TEXT,
	type         TEXT,
	patient_id   TEXT
);
`

const insertPatient = `
INSERT INTO patients (id, name, gender, birth_date, deceased_datetime, marital_status, address)
VALUES (:id, :name, :gender, :birth_date, :deceased_datetime, :marital_status, :address)
ON CONFLICT (id) DO NOTHING`

const insertEncounter = `
INSERT INTO encounters (encounter_id, status, type, patient_id)
VALUES (:encounter_id, :status, :type, :patient_id)
ON CONFLICT (encounter_id) DO NOTHING`

func init() {
	// sqlx does not know the modernc driver name out of the box.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store wraps the relational store holding the patients and encounters
// tables. All writes are duplicate-safe: a row whose primary key is already
// present is skipped, never overwritten.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// Open connects to the store identified by databaseURL. DSNs starting with
// postgres:// or postgresql:// use the Postgres driver; anything else is
// treated as a SQLite file path (the default is a local processed_data.db).
func Open(databaseURL string, log zerolog.Logger) (*Store, error) {
	driver, dsn := resolveDriver(databaseURL)

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s store: %w", driver, err)
	}

	log.Debug().Str("driver", driver).Msg("Connected to store")
	return &Store{db: db, log: log}, nil
}

// NewStore wraps an existing connection. Used by tests and by callers that
// manage the connection themselves.
func NewStore(db *sqlx.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Init creates the patients and encounters tables if they do not exist.
// Failure here is fatal to the run; everything after schema creation is
// contained per row.
func (s *Store) Init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertPatients inserts rows one at a time, skipping rows whose id already
// exists. Insert errors are logged and do not stop the remaining rows.
// Returns the number of rows actually inserted.
func (s *Store) InsertPatients(rows []extract.PatientRow) int {
	inserted := 0
	for _, row := range rows {
		if s.execInsert("patients", insertPatient, row) {
			inserted++
		}
	}
	return inserted
}

// InsertEncounters behaves like InsertPatients for the encounters table,
// keyed on encounter_id.
func (s *Store) InsertEncounters(rows []extract.EncounterRow) int {
	inserted := 0
	for _, row := range rows {
		if s.execInsert("encounters", insertEncounter, row) {
			inserted++
		}
	}
	return inserted
}

// execInsert reports whether the row was actually inserted; a conflicting
// primary key is the expected duplicate-skip outcome, not an error.
func (s *Store) execInsert(table, query string, row interface{}) bool {
	res, err := s.db.NamedExec(query, row)
	if err != nil {
		s.log.Error().Err(err).
			Str("table", table).
			Interface("row", row).
			Msg("Failed to insert row")
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false
	}
	return n > 0
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func resolveDriver(databaseURL string) (driver, dsn string) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "postgres", databaseURL
	}
	return "sqlite", databaseURL
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"passenger-insights/models"
	"passenger-insights/utils"
)

// PostgresStore keeps raw passengers in PostgreSQL. It is both a
// PassengerWriter (seeding) and a PassengerSource (startup load).
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection, pings it with back-off, runs schema
// migrations, and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string, retry *utils.RetryConfig, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db, logger: logger}
	if err := ps.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	logger.Debug("[postgres] Connected and migrated")
	return ps, nil
}

// TransientError reports whether a connection error is worth retrying.
// Rejected credentials, a missing database and missing privileges are
// permanent.
func TransientError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return true
	}
	switch {
	case pqErr.Code.Class() == "28": // invalid authorization
		return false
	case pqErr.Code == "3D000", pqErr.Code == "42501":
		return false
	}
	return true
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS passengers (
			id       SERIAL PRIMARY KEY,
			age      NUMERIC(6,2),
			fare     NUMERIC(10,4),
			sex      VARCHAR(10) NOT NULL,
			class    VARCHAR(10) NOT NULL,
			survived BOOLEAN     NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_passengers_class ON passengers(class);
		CREATE INDEX IF NOT EXISTS idx_passengers_sex   ON passengers(sex);
	`)
	return err
}

// Clear deletes all existing passengers from the table.
func (ps *PostgresStore) Clear() error {
	_, err := ps.db.Exec("DELETE FROM passengers")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts ALL rows, clearing old data first.
func (ps *PostgresStore) Write(rows []*models.RawPassenger) error {
	if len(rows) == 0 {
		return nil
	}

	if err := ps.Clear(); err != nil {
		return err
	}

	const batchSize = 100
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := ps.insertBatch(rows[i:end]); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	ps.logger.Info("[postgres] Stored %d passengers", len(rows))
	return nil
}

func (ps *PostgresStore) insertBatch(batch []*models.RawPassenger) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*5)

	for idx, p := range batch {
		base := idx * 5
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		valueArgs = append(valueArgs,
			nullable(p.Age), nullable(p.Fare), string(p.Sex), string(p.Class), p.Survived)
	}

	query := fmt.Sprintf(`
		INSERT INTO passengers (age, fare, sex, class, survived)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := ps.db.Exec(query, valueArgs...)
	return err
}

// Load verifies the table schema and retrieves every stored passenger in
// insertion order.
func (ps *PostgresStore) Load() ([]*models.RawPassenger, error) {
	if err := ps.checkColumns(); err != nil {
		return nil, err
	}

	rows, err := ps.db.Query(`
		SELECT age, fare, sex, class, survived
		FROM passengers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var out []*models.RawPassenger
	for rows.Next() {
		var (
			age, fare  sql.NullFloat64
			sex, class string
			survived   bool
		)
		if err := rows.Scan(&age, &fare, &sex, &class, &survived); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		p := &models.RawPassenger{
			Age:      models.NullFloat{Value: age.Float64, Valid: age.Valid},
			Fare:     models.NullFloat{Value: fare.Float64, Valid: fare.Valid},
			Survived: survived,
		}
		if p.Sex, err = models.ParseSex(sex); err != nil {
			return nil, fmt.Errorf("postgres: row %d: %w", len(out)+1, err)
		}
		if p.Class, err = models.ParseClass(class); err != nil {
			return nil, fmt.Errorf("postgres: row %d: %w", len(out)+1, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate: %w", err)
	}

	ps.logger.Info("[postgres] Loaded %d passengers", len(out))
	return out, nil
}

func (ps *PostgresStore) checkColumns() error {
	rows, err := ps.db.Query(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = 'passengers'
	`)
	if err != nil {
		return fmt.Errorf("postgres: read schema: %w", err)
	}
	defer rows.Close()

	present := make(map[string]int)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("postgres: scan schema: %w", err)
		}
		present[strings.ToLower(name)] = len(present)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: read schema: %w", err)
	}
	if missing := missingFields(present); len(missing) > 0 {
		return &models.SchemaError{Source: "postgres passengers", Missing: missing}
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func nullable(v models.NullFloat) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Value, Valid: v.Valid}
}

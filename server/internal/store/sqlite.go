package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go driver

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// tsLayout keeps a fixed width so text ordering matches time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite persists records in a single table. Request, result and
// diagnostics are stored as JSON text.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path in WAL mode and
// applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		valve_drawing TEXT NOT NULL,
		turbine_name TEXT NOT NULL DEFAULT '',
		user_name TEXT NOT NULL DEFAULT '',
		calc_timestamp TEXT NOT NULL,
		input_data TEXT NOT NULL,
		output_data TEXT NOT NULL,
		diagnostics TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_valve ON calculations(valve_drawing);
	CREATE INDEX IF NOT EXISTS idx_calculations_ts ON calculations(calc_timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put inserts rec, replacing any record with the same ID.
func (s *SQLite) Put(ctx context.Context, rec types.CalculationRecord) error {
	if rec.ID == "" {
		return errors.New("store: record has no id")
	}
	in, err := json.Marshal(rec.Input)
	if err != nil {
		return fmt.Errorf("store: encode input: %w", err)
	}
	out, err := json.Marshal(rec.Output)
	if err != nil {
		return fmt.Errorf("store: encode output: %w", err)
	}
	diag, err := json.Marshal(rec.Diagnostics)
	if err != nil {
		return fmt.Errorf("store: encode diagnostics: %w", err)
	}

	const query = `
	INSERT INTO calculations (id, valve_drawing, turbine_name, user_name, calc_timestamp, input_data, output_data, diagnostics)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		valve_drawing = excluded.valve_drawing,
		turbine_name = excluded.turbine_name,
		user_name = excluded.user_name,
		calc_timestamp = excluded.calc_timestamp,
		input_data = excluded.input_data,
		output_data = excluded.output_data,
		diagnostics = excluded.diagnostics
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.ValveDrawing, rec.TurbineName, rec.UserName,
		rec.CreatedAt.UTC().Format(tsLayout),
		string(in), string(out), string(diag))
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", rec.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, valve_drawing, turbine_name, user_name, calc_timestamp, input_data, output_data, diagnostics FROM calculations`

// Get returns the record with the given ID.
func (s *SQLite) Get(ctx context.Context, id string) (types.CalculationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CalculationRecord{}, ErrNotFound
	}
	return rec, err
}

// List returns every record, newest first.
func (s *SQLite) List(ctx context.Context) ([]types.CalculationRecord, error) {
	return s.query(ctx, selectColumns+` ORDER BY calc_timestamp DESC, id`)
}

// ListByValve returns the records for one valve drawing, newest first.
func (s *SQLite) ListByValve(ctx context.Context, drawing string) ([]types.CalculationRecord, error) {
	return s.query(ctx, selectColumns+` WHERE valve_drawing = ? ORDER BY calc_timestamp DESC, id`, drawing)
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]types.CalculationRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.CalculationRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the record with the given ID.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calculations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calculations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.CalculationRecord, error) {
	var (
		rec            types.CalculationRecord
		ts             string
		in, out, diags string
	)
	if err := sc.Scan(&rec.ID, &rec.ValveDrawing, &rec.TurbineName, &rec.UserName, &ts, &in, &out, &diags); err != nil {
		return types.CalculationRecord{}, err
	}
	created, err := time.Parse(tsLayout, ts)
	if err != nil {
		return types.CalculationRecord{}, fmt.Errorf("store: record %s: timestamp: %w", rec.ID, err)
	}
	rec.CreatedAt = created
	if err := json.Unmarshal([]byte(in), &rec.Input); err != nil {
		return types.CalculationRecord{}, fmt.Errorf("store: record %s: input: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(out), &rec.Output); err != nil {
		return types.CalculationRecord{}, fmt.Errorf("store: record %s: output: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(diags), &rec.Diagnostics); err != nil {
		return types.CalculationRecord{}, fmt.Errorf("store: record %s: diagnostics: %w", rec.ID, err)
	}
	return rec, nil
}

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"housingprice/internal"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

const postgresPingAttempts = 10

// DB is the SQL backend, on sqlite or postgres. Each dataset update runs inside
// one transaction.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, dialect: dialectSQLite}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

// OpenPostgres connects to dsn, waiting for the server to accept connections.
func OpenPostgres(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < postgresPingAttempts; i++ {
		if err = conn.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	db := &DB{conn: conn, dialect: dialectPostgres}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dataset_rows (
  dataset TEXT NOT NULL,
  seq INTEGER NOT NULL,
  month TEXT NOT NULL,
  topic TEXT NOT NULL,
  city TEXT NOT NULL,
  columnsJson TEXT NOT NULL,
  valuesJson TEXT NOT NULL,
  PRIMARY KEY(dataset, seq)
);
CREATE INDEX IF NOT EXISTS idx_dataset_rows_month ON dataset_rows(dataset, month);

CREATE TABLE IF NOT EXISTS processed (
  month TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  url TEXT NOT NULL,
  docDate TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS failures (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  month TEXT NOT NULL,
  url TEXT NOT NULL,
  error TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Unquoted identifiers fold to lower case in postgres, so the camelCase column
// names above work unchanged in queries.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS dataset_rows (
  dataset TEXT NOT NULL,
  seq INTEGER NOT NULL,
  month TEXT NOT NULL,
  topic TEXT NOT NULL,
  city TEXT NOT NULL,
  columnsJson TEXT NOT NULL,
  valuesJson TEXT NOT NULL,
  PRIMARY KEY(dataset, seq)
);
CREATE INDEX IF NOT EXISTS idx_dataset_rows_month ON dataset_rows(dataset, month);

CREATE TABLE IF NOT EXISTS processed (
  month TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  url TEXT NOT NULL,
  docDate TEXT,
  createdAt TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS failures (
  id BIGSERIAL PRIMARY KEY,
  month TEXT NOT NULL,
  url TEXT NOT NULL,
  error TEXT NOT NULL,
  createdAt TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS runs (
  id BIGSERIAL PRIMARY KEY,
  traceId TEXT NOT NULL,
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func (d *DB) init() error {
	schema := sqliteSchema
	if d.dialect == dialectPostgres {
		schema = postgresSchema
	}
	_, err := d.conn.Exec(schema)
	return err
}

// rebind rewrites "?" placeholders into the "$n" form postgres expects.
func (d *DB) rebind(query string) string {
	if d.dialect != dialectPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) LoadIndex() (internal.ProcessedIndex, error) {
	idx := internal.NewProcessedIndex()
	rows, err := d.conn.Query(`SELECT month, title, url, COALESCE(docDate, '') FROM processed`)
	if err != nil {
		return idx, err
	}
	defer rows.Close()

	for rows.Next() {
		var month string
		var entry internal.ProcessedEntry
		if err := rows.Scan(&month, &entry.Title, &entry.URL, &entry.DocDate); err != nil {
			return idx, err
		}
		idx.Processed[month] = entry
	}
	return idx, rows.Err()
}

func (d *DB) MarkProcessed(month string, entry internal.ProcessedEntry) error {
	_, err := d.conn.Exec(d.rebind(`
INSERT INTO processed (month, title, url, docDate) VALUES (?, ?, ?, ?)
ON CONFLICT(month) DO UPDATE SET
  title=excluded.title,
  url=excluded.url,
  docDate=excluded.docDate
`), month, entry.Title, entry.URL, entry.DocDate)
	return err
}

func (d *DB) ReadDataset(name string) ([]internal.Row, error) {
	return d.readDataset(d.conn, name)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func (d *DB) readDataset(q queryer, name string) ([]internal.Row, error) {
	rows, err := q.Query(d.rebind(`
SELECT month, topic, city, columnsJson, valuesJson
FROM dataset_rows WHERE dataset = ? ORDER BY seq ASC
`), name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Row
	for rows.Next() {
		var row internal.Row
		var topicName, columnsJSON, valuesJSON string
		if err := rows.Scan(&row.Month, &topicName, &row.City, &columnsJSON, &valuesJSON); err != nil {
			return nil, err
		}
		topic, ok := internal.ParseTopic(topicName)
		if !ok {
			return nil, errors.New("unknown topic in dataset " + name + ": " + topicName)
		}
		row.Topic = topic
		_ = json.Unmarshal([]byte(columnsJSON), &row.Columns)
		row.Values = map[string]string{}
		_ = json.Unmarshal([]byte(valuesJSON), &row.Values)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateDataset(name string, fn func([]internal.Row) ([]internal.Row, error)) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := d.readDataset(tx, name)
	if err != nil {
		return err
	}
	updated, err := fn(existing)
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}

	if _, err := tx.Exec(d.rebind(`DELETE FROM dataset_rows WHERE dataset = ?`), name); err != nil {
		return err
	}
	stmt, err := tx.Prepare(d.rebind(`
INSERT INTO dataset_rows (dataset, seq, month, topic, city, columnsJson, valuesJson)
VALUES (?, ?, ?, ?, ?, ?, ?)
`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range updated {
		columnsJSON, _ := json.Marshal(row.Columns)
		valuesJSON, _ := json.Marshal(row.Values)
		if _, err := stmt.Exec(name, i, row.Month, row.Topic.String(), row.City, string(columnsJSON), string(valuesJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) WriteFailures(failures []internal.FailureRecord) error {
	if len(failures) == 0 {
		return nil
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range failures {
		if _, err := tx.Exec(d.rebind(`INSERT INTO failures (month, url, error) VALUES (?, ?, ?)`), f.Month, f.URL, f.Error); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListFailures returns the most recent failures first; limit <= 0 means all.
func (d *DB) ListFailures(limit int) ([]internal.FailureRecord, error) {
	if limit <= 0 {
		limit = -1
		if d.dialect == dialectPostgres {
			limit = 1 << 30
		}
	}
	rows, err := d.conn.Query(d.rebind(`SELECT month, url, error FROM failures ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.FailureRecord
	for rows.Next() {
		var f internal.FailureRecord
		if err := rows.Scan(&f.Month, &f.URL, &f.Error); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type runCounts struct {
	Candidates int `json:"candidates"`
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
	Failures   int `json:"failures"`
}

func (d *DB) RecordRun(summary internal.RunSummary) error {
	countsJSON, _ := json.Marshal(runCounts{
		Candidates: summary.Candidates,
		Processed:  summary.Processed,
		Skipped:    summary.Skipped,
		Failures:   summary.Failures,
	})
	_, err := d.conn.Exec(d.rebind(`INSERT INTO runs (traceId, startedAt, finishedAt, countsJson) VALUES (?, ?, ?, ?)`),
		summary.TraceID, summary.StartedAt, summary.FinishedAt, string(countsJSON))
	return err
}

func (d *DB) LastRun() (*internal.RunSummary, error) {
	var summary internal.RunSummary
	var countsJSON string
	err := d.conn.QueryRow(`
SELECT traceId, startedAt, finishedAt, countsJson FROM runs ORDER BY id DESC LIMIT 1
`).Scan(&summary.TraceID, &summary.StartedAt, &summary.FinishedAt, &countsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var counts runCounts
	_ = json.Unmarshal([]byte(countsJSON), &counts)
	summary.Candidates = counts.Candidates
	summary.Processed = counts.Processed
	summary.Skipped = counts.Skipped
	summary.Failures = counts.Failures
	return &summary, nil
}

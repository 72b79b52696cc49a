package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_inputs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	input_ref     TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	priority      INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL,
	started_at    TIMESTAMP,
	completed_at  TIMESTAMP,
	error_message TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS processing_batches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	source_file  TEXT NOT NULL,
	status       TEXT NOT NULL,
	record_count INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS processed_records (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id  INTEGER NOT NULL REFERENCES processing_batches(id) ON DELETE CASCADE,
	name      TEXT NOT NULL,
	value     TEXT NOT NULL,
	finalized INTEGER NOT NULL DEFAULT 0
);
`

// NewSQLiteStore opens, creating it if needed, the SQLite store at the given
// path. The returned store is safe for concurrent use; writes are serialized
// on a single connection.
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open database %s", path)
	}
	// modernc sqlite allows a single writer; a single connection avoids
	// SQLITE_BUSY under the worker pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cannot enable foreign keys")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cannot create tables")
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct {
	db *sql.DB
}

func (s *sqliteStore) Add(ctx context.Context, inputRef string, priority int) (QueueItem, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_inputs (input_ref, status, priority, created_at) VALUES (?, ?, ?, ?)`,
		inputRef, StatusPending, priority, now)
	if err != nil {
		return QueueItem{}, errors.Wrapf(err, "cannot insert input %s", inputRef)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return QueueItem{}, errors.Wrap(err, "cannot read inserted input id")
	}
	return QueueItem{
		ID:        id,
		InputRef:  inputRef,
		Status:    StatusPending,
		Priority:  priority,
		CreatedAt: now,
	}, nil
}

func (s *sqliteStore) ClaimPending(ctx context.Context, limit int) ([]QueueItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "cannot begin transaction")
	}
	defer tx.Rollback()

	q := `SELECT id, input_ref, priority, created_at FROM pipeline_inputs
		WHERE status = ? ORDER BY priority DESC, created_at ASC, id ASC`
	args := []interface{}{StatusPending}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "cannot select pending inputs")
	}
	defer rows.Close()

	now := time.Now().UTC()
	var claimed []QueueItem
	for rows.Next() {
		var it QueueItem
		if err := rows.Scan(&it.ID, &it.InputRef, &it.Priority, &it.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "cannot scan input")
		}
		it.Status = StatusProcessing
		t := now
		it.StartedAt = &t
		claimed = append(claimed, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "cannot iterate pending inputs")
	}
	rows.Close()

	for _, it := range claimed {
		if _, err := tx.ExecContext(ctx,
			`UPDATE pipeline_inputs SET status = ?, started_at = ? WHERE id = ?`,
			StatusProcessing, now, it.ID); err != nil {
			return nil, errors.Wrapf(err, "cannot claim input %d", it.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "cannot commit claim")
	}
	return claimed, nil
}

func (s *sqliteStore) MarkSucceeded(ctx context.Context, id int64) error {
	return s.mark(ctx, id, StatusCompleted, "")
}

func (s *sqliteStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return s.mark(ctx, id, StatusFailed, errMsg)
}

func (s *sqliteStore) mark(ctx context.Context, id int64, to Status, errMsg string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "cannot begin transaction")
	}
	defer tx.Rollback()

	var current Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM pipeline_inputs WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return NotFoundError(fmt.Sprintf("input %d", id))
	}
	if err != nil {
		return errors.Wrapf(err, "cannot read status of input %d", id)
	}
	if current == to {
		return nil
	}
	if current != StatusProcessing {
		return InvalidTransitionError{ID: id, From: current, To: to}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pipeline_inputs SET status = ?, completed_at = ?, error_message = ? WHERE id = ?`,
		to, time.Now().UTC(), errMsg, id); err != nil {
		return errors.Wrapf(err, "cannot mark input %d as %s", id, to)
	}
	return errors.Wrap(tx.Commit(), "cannot commit mark")
}

func (s *sqliteStore) List(ctx context.Context, status Status, limit int) ([]QueueItem, error) {
	q := `SELECT id, input_ref, status, priority, created_at, started_at, completed_at, error_message
		FROM pipeline_inputs`
	var args []interface{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "cannot list inputs")
	}
	defer rows.Close()

	var res []QueueItem
	for rows.Next() {
		var it QueueItem
		var started, completed sql.NullTime
		if err := rows.Scan(&it.ID, &it.InputRef, &it.Status, &it.Priority,
			&it.CreatedAt, &started, &completed, &it.ErrorMessage); err != nil {
			return nil, errors.Wrap(err, "cannot scan input")
		}
		if started.Valid {
			it.StartedAt = &started.Time
		}
		if completed.Valid {
			it.CompletedAt = &completed.Time
		}
		res = append(res, it)
	}
	return res, errors.Wrap(rows.Err(), "cannot iterate inputs")
}

func (s *sqliteStore) Clear(ctx context.Context, status Status) (int, error) {
	q := `DELETE FROM pipeline_inputs`
	var args []interface{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "cannot clear inputs")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "cannot count cleared inputs")
}

func (s *sqliteStore) ResetFailed(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_inputs SET status = ?, started_at = NULL, completed_at = NULL, error_message = ''
		WHERE status = ?`, StatusPending, StatusFailed)
	if err != nil {
		return 0, errors.Wrap(err, "cannot reset failed inputs")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "cannot count reset inputs")
}

func (s *sqliteStore) CreateBatch(ctx context.Context, sourceFile string, records []Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "cannot begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO processing_batches (source_file, status, record_count, created_at) VALUES (?, ?, ?, ?)`,
		sourceFile, BatchProcessing, 0, time.Now().UTC())
	if err != nil {
		return 0, errors.Wrapf(err, "cannot create batch for %s", sourceFile)
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "cannot read created batch id")
	}

	for _, r := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processed_records (batch_id, name, value, finalized) VALUES (?, ?, ?, 0)`,
			batchID, r.Name, r.Value); err != nil {
			return 0, errors.Wrapf(err, "cannot insert record %s", r.Name)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE processing_batches SET status = ?, record_count = ? WHERE id = ?`,
		BatchCompleted, len(records), batchID); err != nil {
		return 0, errors.Wrapf(err, "cannot complete batch %d", batchID)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "cannot commit batch")
	}
	return batchID, nil
}

func (s *sqliteStore) GetBatch(ctx context.Context, id int64) (Batch, error) {
	var b Batch
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_file, status, record_count, created_at FROM processing_batches WHERE id = ?`, id).
		Scan(&b.ID, &b.SourceFile, &b.Status, &b.RecordCount, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return Batch{}, NotFoundError(fmt.Sprintf("batch %d", id))
	}
	if err != nil {
		return Batch{}, errors.Wrapf(err, "cannot get batch %d", id)
	}
	return b, nil
}

func (s *sqliteStore) FinalizeBatch(ctx context.Context, id int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "cannot begin transaction")
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM processing_batches WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot check batch %d", id)
	}
	if exists == 0 {
		return 0, NotFoundError(fmt.Sprintf("batch %d", id))
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE processed_records SET finalized = 1 WHERE batch_id = ? AND finalized = 0`, id)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot finalize records of batch %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "cannot count finalized records")
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE processing_batches SET status = ? WHERE id = ?`, BatchFinalized, id); err != nil {
		return 0, errors.Wrapf(err, "cannot finalize batch %d", id)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "cannot commit finalize")
	}
	return int(n), nil
}

func (s *sqliteStore) Close() error {
	return errors.Wrap(s.db.Close(), "cannot close database")
}

package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jirevwe/archserver/packer"
	"github.com/jirevwe/archserver/store"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

var createAccessLog = `create table if not exists access_log (
			id TEXT not null primary key,
			conn_id TEXT not null,
			remote_addr TEXT not null,
			request_line TEXT not null,
			headers BLOB,
			status INTEGER not null,
			duration_ms INTEGER not null,
			created_at TEXT not null default (strftime('%Y-%m-%dT%H:%M:%fZ'))
		) strict;`

var createAccessLogStatusIndex = `create index if not exists idx_access_log_status on access_log (status);`

// entryRow is the table shape; headers stay msgpack-encoded.
type entryRow struct {
	Id          string `db:"id"`
	ConnId      string `db:"conn_id"`
	RemoteAddr  string `db:"remote_addr"`
	RequestLine string `db:"request_line"`
	Headers     []byte `db:"headers"`
	Status      int    `db:"status"`
	DurationMs  int64  `db:"duration_ms"`
	CreatedAt   string `db:"created_at"`
}

type Sqlite struct {
	logger *slog.Logger
	db     *sqlx.DB
}

var _ store.AccessLog = (*Sqlite)(nil)

func NewSqlite(dbPath string, logger *slog.Logger) (*Sqlite, error) {
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("%s?mode=rwc&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, err
	}

	// workers write concurrently; sqlite takes one writer at a time
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_size_limit = 67108864;")
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	_, err = db.Exec("PRAGMA cache_size = 2000;")
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	s := &Sqlite{db: db, logger: logger}

	ctx := context.Background()
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, createAccessLog); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, createAccessLogStatusIndex); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info("access log opened", "path", dbPath)

	return s, nil
}

// Record inserts an access log entry, assigning an id and timestamp when missing.
func (s *Sqlite) Record(ctx context.Context, entry *store.Entry) error {
	if entry.Id == "" {
		entry.Id = ulid.Make().String()
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = time.Now().UTC().Format(store.Rfc3339Milli)
	}

	headers, err := packer.EncodeMessage(entry.Headers)
	if err != nil {
		return fmt.Errorf("cannot encode headers: %w", err)
	}

	row := entryRow{
		Id:          entry.Id,
		ConnId:      entry.ConnId,
		RemoteAddr:  entry.RemoteAddr,
		RequestLine: entry.RequestLine,
		Headers:     headers,
		Status:      entry.Status,
		DurationMs:  entry.DurationMs,
		CreatedAt:   entry.CreatedAt,
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, innerErr := tx.NamedExecContext(ctx, `insert into access_log (id, conn_id, remote_addr, request_line, headers, status, duration_ms, created_at)
			values (:id, :conn_id, :remote_addr, :request_line, :headers, :status, :duration_ms, :created_at)`, row)
		return innerErr
	})
}

// List returns up to limit entries, newest first. A limit below one means no limit.
func (s *Sqlite) List(ctx context.Context, limit int) ([]store.Entry, error) {
	if limit < 1 {
		limit = -1
	}

	var rows []entryRow
	err := s.db.SelectContext(ctx, &rows, `select * from access_log order by id desc limit $1`, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]store.Entry, 0, len(rows))
	for _, r := range rows {
		e := store.Entry{
			Id:          r.Id,
			ConnId:      r.ConnId,
			RemoteAddr:  r.RemoteAddr,
			RequestLine: r.RequestLine,
			Status:      r.Status,
			DurationMs:  r.DurationMs,
			CreatedAt:   r.CreatedAt,
		}
		if err = packer.DecodeMessage(r.Headers, &e.Headers); err != nil {
			return nil, fmt.Errorf("cannot decode headers of %s: %w", r.Id, err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// CountByStatus returns how many entries were recorded with the given status.
func (s *Sqlite) CountByStatus(ctx context.Context, status int) (n int, err error) {
	err = s.db.GetContext(ctx, &n, `select count(*) from access_log where status = $1`, status)
	return n, err
}

// Truncate clears the access log
func (s *Sqlite) Truncate(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `delete from access_log`)
		return err
	})
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}

func (s *Sqlite) inTx(ctx context.Context, cb func(*sqlx.Tx) error) (err error) {
	tx, beginErr := s.db.BeginTxx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("cannot start tx: %w", beginErr)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = s.rollback(tx, nil)
			panic(rec)
		}
	}()

	if err = cb(tx); err != nil {
		return s.rollback(tx, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("cannot commit tx: %w", commitErr)
	}

	return nil
}

func (s *Sqlite) rollback(tx *sqlx.Tx, err error) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		s.logger.Error("cannot roll back tx", "error", rollbackErr, "cause", err)
		return fmt.Errorf("cannot roll back tx after error (tx error: %v), original error: %w", rollbackErr, err)
	}

	s.logger.Warn("tx rolled back", "error", err)
	return err
}

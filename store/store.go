package store

import (
	"context"
	"time"
)

const (
	// Rfc3339Milli is like time.RFC3339Nano, but with millisecond precision
	Rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"
)

type AccessLog interface {
	// Record stores one served request
	Record(context.Context, *Entry) error

	// List returns the most recent entries, newest first
	List(context.Context, int) ([]Entry, error)

	Close() error
}

// Entry is one served connection.
type Entry struct {
	Id          string   `json:"id" db:"id"`
	ConnId      string   `json:"conn_id" db:"conn_id"`
	RemoteAddr  string   `json:"remote_addr" db:"remote_addr"`
	RequestLine string   `json:"request_line" db:"request_line"`
	Headers     []string `json:"headers" db:"-"`
	Status      int      `json:"status" db:"status"`
	DurationMs  int64    `json:"duration_ms" db:"duration_ms"`
	CreatedAt   string   `json:"created_at" db:"created_at"`
}

func (e *Entry) CreatedTime() time.Time {
	t, err := time.Parse(Rfc3339Milli, e.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

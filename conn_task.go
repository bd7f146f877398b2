package archserver

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/jirevwe/archserver/store"
	"github.com/oklog/ulid/v2"
)

// connTask handles one accepted connection on a pool worker.
type connTask struct {
	id       string
	ctx      context.Context
	conn     net.Conn
	srv      *Server
	accepted time.Time
}

func newConnTask(ctx context.Context, srv *Server, conn net.Conn) *connTask {
	return &connTask{
		id:       ulid.Make().String(),
		ctx:      ctx,
		conn:     conn,
		srv:      srv,
		accepted: time.Now(),
	}
}

// Execute reads the request, answers it and closes the connection.
func (t *connTask) Execute() {
	defer t.conn.Close()

	log := t.srv.logger.With("conn_id", t.id)
	start := time.Now()

	if timeout := t.srv.cfg.ReadTimeout; timeout > 0 {
		_ = t.conn.SetReadDeadline(start.Add(timeout))
	}

	req, err := ReadRequest(bufio.NewReader(t.conn))
	if err != nil {
		log.Warn("cannot read request", "error", err)
		return
	}
	req.RemoteAddr = t.conn.RemoteAddr().String()

	log.Info("request", "request_line", req.Line, "remote_addr", req.RemoteAddr, "queued_for", start.Sub(t.accepted))
	log.Debug("request headers", "headers", req.Headers)

	resp, err := t.srv.mux.ServeRequest(t.ctx, req)
	if err != nil {
		log.Error("handler failed", "request_line", req.Line, "error", err)
		return
	}

	if _, err = resp.WriteTo(t.conn); err != nil {
		log.Error("cannot write response", "error", err)
		return
	}

	t.srv.metrics.RequestServed(resp.StatusCode)
	t.record(req, resp.StatusCode, time.Since(start))
}

func (t *connTask) record(req *Request, status int, elapsed time.Duration) {
	if t.srv.store == nil {
		return
	}

	entry := &store.Entry{
		ConnId:      t.id,
		RemoteAddr:  req.RemoteAddr,
		RequestLine: req.Line,
		Headers:     req.Headers,
		Status:      status,
		DurationMs:  elapsed.Milliseconds(),
	}

	r := NewRetry(t.srv.cfg.AccessLogRetries, t.srv.cfg.AccessLogRetryDelay, func() error {
		return t.srv.store.Record(t.ctx, entry)
	})
	if err := r.Do(t.ctx); err != nil {
		t.srv.logger.Error("cannot record access log entry", "conn_id", t.id, "error", err)
	}
}

// OnFailure is called by the worker when Execute panicked.
func (t *connTask) OnFailure(err error) {
	t.srv.logger.Error("connection handler panicked", "conn_id", t.id, "error", err)
}

// OnDiscard closes a connection that was still queued at shutdown.
func (t *connTask) OnDiscard() {
	t.srv.logger.Warn("dropping queued connection", "conn_id", t.id)
	_ = t.conn.Close()
}

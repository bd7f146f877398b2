package archserver

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouter_Routes(t *testing.T) {
	m, err := NewRouter("arm64")
	require.NoError(t, err)

	tests := []struct {
		line   string
		status int
		want   string
	}{
		{"GET / HTTP/1.1", http.StatusOK, "Response from arm64 architecture"},
		{"GET /x86 HTTP/1.1", http.StatusOK, "Response from arm64 architecture"},
		{"GET /arm64 HTTP/1.1", http.StatusOK, "Response from arm64 architecture"},
		{"GET /ishealthy HTTP/1.1", http.StatusOK, "operating normally"},
		{"GET /missing HTTP/1.1", http.StatusNotFound, "Oops!"},
		{"POST / HTTP/1.1", http.StatusNotFound, "Oops!"},
		{"GET / HTTP/1.0", http.StatusNotFound, "Oops!"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			resp, err := m.ServeRequest(context.Background(), &Request{Line: tt.line})
			require.NoError(t, err)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Contains(t, resp.Body, tt.want)
		})
	}
}

func TestMux_HandleOverrides(t *testing.T) {
	m := NewMux()

	called := false
	m.Handle("GET /custom HTTP/1.1", HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		called = true
		return &Response{StatusCode: http.StatusTeapot, Body: "teapot"}, nil
	}))

	resp, err := m.ServeRequest(context.Background(), &Request{Line: "GET /custom HTTP/1.1"})
	require.NoError(t, err)
	require.True(t, called)
	require.Equal(t, http.StatusTeapot, resp.StatusCode)

	require.NotNil(t, m.Handler(&Request{Line: "nothing"}))
}

func TestResponse_WireFormat(t *testing.T) {
	resp := &Response{StatusCode: http.StatusNotFound, Body: "<h1>x</h1>"}

	var buf bytes.Buffer
	n, err := resp.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	require.Equal(t,
		"HTTP/1.1 404 NOT FOUND\r\nContent-Length: 10\r\nContent-Type: text/html; charset=utf-8\r\n\r\n<h1>x</h1>",
		buf.String())

	ok := &Response{StatusCode: http.StatusOK}
	require.True(t, strings.HasPrefix(string(ok.Bytes()), "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n"))
}

func TestRenderArchPage(t *testing.T) {
	body, err := RenderArchPage("amd64")
	require.NoError(t, err)
	require.Contains(t, body, "<h1>Response from amd64 architecture</h1>")
	require.Contains(t, body, "<title>Multi architecture</title>")
}

package archserver

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readString(s string) (*Request, error) {
	return ReadRequest(bufio.NewReader(strings.NewReader(s)))
}

func TestReadRequest(t *testing.T) {
	req, err := readString("GET /x86 HTTP/1.1\r\nHost: localhost:3000\r\nAccept: */*\r\n\r\nbody is ignored")
	require.NoError(t, err)
	require.Equal(t, "GET /x86 HTTP/1.1", req.Line)
	require.Equal(t, []string{"Host: localhost:3000", "Accept: */*"}, req.Headers)
	require.Equal(t, "GET", req.Method())
	require.Equal(t, "/x86", req.Target())
}

func TestReadRequest_BareLineFeeds(t *testing.T) {
	req, err := readString("GET / HTTP/1.1\nHost: a\n\n")
	require.NoError(t, err)
	require.Equal(t, "GET / HTTP/1.1", req.Line)
	require.Equal(t, []string{"Host: a"}, req.Headers)
}

func TestReadRequest_EOFWithoutBlankLine(t *testing.T) {
	req, err := readString("GET /ishealthy HTTP/1.1")
	require.NoError(t, err)
	require.Equal(t, "GET /ishealthy HTTP/1.1", req.Line)
	require.Empty(t, req.Headers)
}

func TestReadRequest_Empty(t *testing.T) {
	_, err := readString("")
	require.ErrorIs(t, err, ErrEmptyRequest)

	_, err = readString("\r\n")
	require.ErrorIs(t, err, ErrEmptyRequest)
}

func TestReadRequest_LineTooLong(t *testing.T) {
	_, err := readString("GET /" + strings.Repeat("a", maxLineLength) + " HTTP/1.1\r\n\r\n")
	require.ErrorIs(t, err, ErrLineTooLong)
}

func TestReadRequest_TooManyHeaders(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i <= maxHeaders; i++ {
		sb.WriteString("X-Header: 1\r\n")
	}
	sb.WriteString("\r\n")

	_, err := readString(sb.String())
	require.ErrorIs(t, err, ErrTooManyHeaders)
}

func TestRequest_TargetMissing(t *testing.T) {
	req := &Request{Line: "GET"}
	require.Equal(t, "GET", req.Method())
	require.Equal(t, "", req.Target())
}

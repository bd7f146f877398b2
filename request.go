package archserver

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	maxLineLength = 8 << 10
	maxHeaders    = 100
)

var (
	ErrEmptyRequest   = errors.New("request has no request line")
	ErrLineTooLong    = errors.New("request line too long")
	ErrTooManyHeaders = errors.New("too many header lines")
)

// Request is the head of an incoming request: the request line and the
// header lines up to the first blank line. The body, if any, is not read.
type Request struct {
	Line       string
	Headers    []string
	RemoteAddr string
}

// Method returns the first field of the request line.
func (r *Request) Method() string {
	method, _, _ := strings.Cut(r.Line, " ")
	return method
}

// Target returns the second field of the request line.
func (r *Request) Target() string {
	fields := strings.Fields(r.Line)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// ReadRequest reads lines from br until the first blank line or EOF.
func ReadRequest(br *bufio.Reader) (*Request, error) {
	req := &Request{}

	for {
		line, err := readLine(br)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		if line == "" {
			break
		}

		if req.Line == "" {
			req.Line = line
		} else {
			if len(req.Headers) == maxHeaders {
				return nil, ErrTooManyHeaders
			}
			req.Headers = append(req.Headers, line)
		}

		if errors.Is(err, io.EOF) {
			break
		}
	}

	if req.Line == "" {
		return nil, ErrEmptyRequest
	}

	return req, nil
}

// readLine returns one line without its CRLF or LF terminator.
func readLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder

	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return sb.String(), err
		}

		if sb.Len()+len(chunk) > maxLineLength {
			return "", ErrLineTooLong
		}
		sb.Write(chunk)

		if !isPrefix {
			return sb.String(), nil
		}
	}
}

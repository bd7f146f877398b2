package archserver

import (
	"context"
	"fmt"
	"net/http"
)

// A Handler answers requests.
//
// ServeRequest should return the response to write back. A non-nil
// error means nothing is written and the connection is closed.
type Handler interface {
	ServeRequest(context.Context, *Request) (*Response, error)
}

// The HandlerFunc type is an adapter to allow the use of
// ordinary functions as a Handler. If f is a function
// with the appropriate signature, HandlerFunc(f) is a
// Handler that calls f.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// ServeRequest calls fn(ctx, req)
func (fn HandlerFunc) ServeRequest(ctx context.Context, req *Request) (*Response, error) {
	return fn(ctx, req)
}

// NotFound answers with the 404 page.
func NotFound(ctx context.Context, req *Request) (*Response, error) {
	return &Response{StatusCode: http.StatusNotFound, Body: notFoundPage}, nil
}

// NotFoundHandler returns a simple handler that answers with the “not found“ page.
func NotFoundHandler() Handler { return HandlerFunc(NotFound) }

// HealthHandler answers with the health page.
func HealthHandler() Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: healthyPage}, nil
	})
}

// ArchHandler answers with the architecture page for arch. The page is
// rendered once.
func ArchHandler(arch string) (Handler, error) {
	body, err := RenderArchPage(arch)
	if err != nil {
		return nil, fmt.Errorf("cannot render architecture page: %w", err)
	}

	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: body}, nil
	}), nil
}

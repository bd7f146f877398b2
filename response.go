package archserver

import (
	"fmt"
	"io"
	"net/http"

	"github.com/aymerick/raymond"
)

// Response is a fixed HTML response written straight to the connection.
type Response struct {
	StatusCode int
	Body       string
}

// StatusLine returns e.g. "HTTP/1.1 404 NOT FOUND".
func (r *Response) StatusLine() string {
	if r.StatusCode == http.StatusNotFound {
		return "HTTP/1.1 404 NOT FOUND"
	}
	return fmt.Sprintf("HTTP/1.1 %d %s", r.StatusCode, http.StatusText(r.StatusCode))
}

// Bytes returns the wire form of the response.
func (r *Response) Bytes() []byte {
	return []byte(fmt.Sprintf("%s\r\nContent-Length: %d\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s",
		r.StatusLine(), len(r.Body), r.Body))
}

// WriteTo writes the wire form of the response to w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

const archTemplate = `
    <!DOCTYPE html>
    <html lang="en">
    <head>
        <meta charset="utf-8">
        <title>Multi architecture</title>
    </head>
    <body>
        <h1>Response from {{architecture}} architecture</h1>
    </body>
    </html>
    `

const healthyPage = `
    <!DOCTYPE html>
    <html lang="en">
      <head>
        <meta charset="utf-8">
        <title>Healthy</title>
      </head>
      <body>
        <h1>This Go application is operating normally.</h1>
      </body>
    </html>
    `

const notFoundPage = `
    <!DOCTYPE html>
    <html lang="en">
      <head>
        <meta charset="utf-8">
        <title>Sorry</title>
      </head>
      <body>
        <h1>Oops!</h1>
        <p>Sorry, I don't know what you're asking for.</p>
      </body>
    </html>
    `

var archPage = raymond.MustParse(archTemplate)

// RenderArchPage renders the architecture page for arch.
func RenderArchPage(arch string) (string, error) {
	return archPage.Exec(map[string]string{"architecture": arch})
}

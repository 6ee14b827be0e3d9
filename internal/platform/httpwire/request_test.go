package httpwire_test

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
)

func read(raw string) (*httpwire.Request, error) {
	return httpwire.ReadRequest(bufio.NewReader(strings.NewReader(raw)), 1024)
}

func TestReadRequest_Valid(t *testing.T) {
	req, err := read("POST /queue?debug=1 HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"content-type: application/json\r\n" +
		"X-Nonce:abc\r\n" +
		"Content-Length: 14\r\n" +
		"\r\n" +
		`{"tickets": 2}` + "trailing garbage")
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/queue", req.Path)
	assert.Equal(t, "debug=1", req.Query)
	assert.Equal(t, "application/json", req.Header("Content-Type"))
	assert.Equal(t, "application/json", req.Header("CONTENT-TYPE"))
	assert.Equal(t, "abc", req.Header("x-nonce"))
	assert.Equal(t, `{"tickets": 2}`, string(req.Body))
}

func TestReadRequest_NoContentLengthMeansNoBody(t *testing.T) {
	req, err := read("GET /tickets HTTP/1.1\r\nAccept: application/json\r\n\r\nignored")
	require.NoError(t, err)
	assert.Empty(t, req.Body)
}

func TestReadRequest_BareLFAndRepeatedHeaders(t *testing.T) {
	req, err := read("GET / HTTP/1.1\nAccept: text/html\nAccept: application/json\n\n")
	require.NoError(t, err)
	assert.Equal(t, "text/html, application/json", req.Header("Accept"))
}

func TestReadRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "http/1.0", raw: "GET / HTTP/1.0\r\n\r\n", want: httpwire.ErrMalformedRequest},
		{name: "absolute form", raw: "GET http://x/ HTTP/1.1\r\n\r\n", want: httpwire.ErrMalformedRequest},
		{name: "missing version", raw: "GET /\r\n\r\n", want: httpwire.ErrMalformedRequest},
		{name: "garbage", raw: "hello\r\n\r\n", want: httpwire.ErrMalformedRequest},
		{name: "header without colon", raw: "GET / HTTP/1.1\r\nAccept application/json\r\n\r\n", want: httpwire.ErrMalformedRequest},
		{name: "header with empty name", raw: "GET / HTTP/1.1\r\n: x\r\n\r\n", want: httpwire.ErrMalformedRequest},
		{name: "headers cut off", raw: "GET / HTTP/1.1\r\nAccept: x\r\n", want: httpwire.ErrMalformedRequest},
		{name: "bad content length", raw: "POST / HTTP/1.1\r\nContent-Length: ten\r\n\r\n", want: httpwire.ErrMalformedRequest},
		{name: "negative content length", raw: "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n", want: httpwire.ErrMalformedRequest},
		{name: "truncated body", raw: "POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc", want: httpwire.ErrTruncatedBody},
		{name: "empty body declared", raw: "POST / HTTP/1.1\r\nContent-Length: 3\r\n\r\n", want: httpwire.ErrTruncatedBody},
		{name: "body too large", raw: "POST / HTTP/1.1\r\nContent-Length: 4096\r\n\r\n", want: httpwire.ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := read(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestReadRequest_EmptyStreamIsEOF(t *testing.T) {
	_, err := read("")
	assert.True(t, errors.Is(err, io.EOF))
	assert.False(t, errors.Is(err, httpwire.ErrMalformedRequest))
}

package httpwire

import (
	"bufio"
	"context"
	"io"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrTruncatedBody    = errors.New("request body shorter than Content-Length")
	ErrBodyTooLarge     = errors.New("request body too large")
)

const (
	maxLineBytes   = 8 << 10
	maxHeaderLines = 100
)

// requestLine accepts METHOD SP origin-form SP HTTP/1.1. Only origin-form
// targets are served and only HTTP/1.1 is spoken.
var requestLine = regexp.MustCompile(`^([A-Za-z]+) +(/[^\s]*) +HTTP/1\.1$`)

// Request is one parsed HTTP/1.1 request. Header keys are canonicalized.
type Request struct {
	Method  string
	Path    string
	Query   string
	Headers map[string]string
	Body    []byte

	params map[string]string
	ctx    context.Context
}

func (r *Request) Header(name string) string {
	return r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// Param returns the value bound to :name by the matching route.
func (r *Request) Param(name string) string {
	return r.params[name]
}

func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r carrying ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// ReadRequest decodes exactly one request from br. A body is read only when
// Content-Length is present.
func ReadRequest(br *bufio.Reader, maxBodyBytes int64) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return nil, errors.Wrap(io.EOF, "read request line")
		}
		return nil, errors.Wrap(ErrMalformedRequest, err.Error())
	}

	m := requestLine.FindStringSubmatch(line)
	if m == nil {
		return nil, errors.Wrapf(ErrMalformedRequest, "request line %q", line)
	}

	req := &Request{
		Method:  m[1],
		Path:    m[2],
		Headers: make(map[string]string),
	}
	if i := strings.IndexByte(req.Path, '?'); i >= 0 {
		req.Path, req.Query = req.Path[:i], req.Path[i+1:]
	}

	if err := readHeaders(br, req.Headers); err != nil {
		return nil, err
	}

	body, err := readBody(br, req.Headers, maxBodyBytes)
	if err != nil {
		return nil, err
	}
	req.Body = body

	return req, nil
}

func readHeaders(br *bufio.Reader, headers map[string]string) error {
	for n := 0; ; n++ {
		if n > maxHeaderLines {
			return errors.Wrap(ErrMalformedRequest, "too many header lines")
		}

		line, err := readLine(br)
		if err != nil {
			return errors.Wrap(ErrMalformedRequest, "headers: "+err.Error())
		}
		if line == "" {
			return nil
		}

		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			return errors.Wrapf(ErrMalformedRequest, "header line %q", line)
		}
		name := line[:colon]
		if strings.ContainsAny(name, " \t") {
			return errors.Wrapf(ErrMalformedRequest, "header name %q", name)
		}

		key := textproto.CanonicalMIMEHeaderKey(name)
		value := strings.TrimSpace(line[colon+1:])
		if prev, ok := headers[key]; ok {
			value = prev + ", " + value
		}
		headers[key] = value
	}
}

func readBody(br *bufio.Reader, headers map[string]string, maxBodyBytes int64) ([]byte, error) {
	raw, ok := headers["Content-Length"]
	if !ok {
		return nil, nil
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return nil, errors.Wrapf(ErrMalformedRequest, "content-length %q", raw)
	}
	if maxBodyBytes > 0 && n > maxBodyBytes {
		return nil, errors.Wrapf(ErrBodyTooLarge, "%d bytes exceeds limit of %d", n, maxBodyBytes)
	}

	body := make([]byte, n)
	if read, err := io.ReadFull(br, body); err != nil {
		return nil, errors.Wrapf(ErrTruncatedBody, "got %d of %d bytes: %v", read, n, err)
	}
	return body, nil
}

// readLine returns one line without its CRLF (or bare LF) terminator.
func readLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, err := br.ReadSlice('\n')
		sb.Write(chunk)
		if sb.Len() > maxLineBytes {
			return "", errors.New("line too long")
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return sb.String(), err
		}
		break
	}

	line := strings.TrimSuffix(sb.String(), "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

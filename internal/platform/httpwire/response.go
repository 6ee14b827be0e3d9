package httpwire

import (
	"bytes"
	"encoding/json"
	"io"
	"net/textproto"
	"sort"
	"strconv"
)

const (
	StatusOK                   = 200
	StatusCreated              = 201
	StatusNoContent            = 204
	StatusBadRequest           = 400
	StatusNotFound             = 404
	StatusNotAcceptable        = 406
	StatusConflict             = 409
	StatusPayloadTooLarge      = 413
	StatusUnsupportedMediaType = 415
	StatusUnprocessableEntity  = 422
	StatusInternalServerError  = 500
)

var statusText = map[int]string{
	StatusOK:                   "OK",
	StatusCreated:              "Created",
	StatusNoContent:            "No Content",
	StatusBadRequest:           "Bad Request",
	StatusNotFound:             "Not Found",
	StatusNotAcceptable:        "Not Acceptable",
	StatusConflict:             "Conflict",
	StatusPayloadTooLarge:      "Payload Too Large",
	StatusUnsupportedMediaType: "Unsupported Media Type",
	StatusUnprocessableEntity:  "Unprocessable Entity",
	StatusInternalServerError:  "Internal Server Error",
}

// StatusText returns the reason phrase for code, or "Unknown".
func StatusText(code int) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Unknown"
}

type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Headers: make(map[string]string), Body: body}
}

func Text(status int, body string) *Response {
	return NewResponse(status, []byte(body)).SetHeader("Content-Type", "text/plain; charset=utf-8")
}

// JSON encodes v as the response body. An unencodable value yields a 500.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Text(StatusInternalServerError, "failed to encode response")
	}
	return NewResponse(status, body).SetHeader("Content-Type", "application/json")
}

func NoContent() *Response {
	return NewResponse(StatusNoContent, nil)
}

func (r *Response) SetHeader(name, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[name] = value
	return r
}

// WriteTo renders the response with HTTP/1.1 framing. Content-Length is
// always computed from the body and Connection is always close.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(r.Status))
	buf.WriteByte(' ')
	buf.WriteString(StatusText(r.Status))
	buf.WriteString("\r\n")

	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		switch textproto.CanonicalMIMEHeaderKey(name) {
		case "Content-Length", "Connection":
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		writeHeader(&buf, name, r.Headers[name])
	}
	writeHeader(&buf, "Content-Length", strconv.Itoa(len(r.Body)))
	writeHeader(&buf, "Connection", "close")

	buf.WriteString("\r\n")
	buf.Write(r.Body)

	return buf.WriteTo(w)
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

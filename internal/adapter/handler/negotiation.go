package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"strconv"
	"strings"

	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
)

const mediaTypeJSON = "application/json"

// acceptsJSON reports whether the Accept header admits a JSON response. A
// missing header does not.
func acceptsJSON(req *httpwire.Request) bool {
	for _, part := range strings.Split(req.Header("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case mediaTypeJSON, "application/*", "*/*":
			return true
		}
	}
	return false
}

func sendsJSON(req *httpwire.Request) bool {
	mt, _, err := mime.ParseMediaType(req.Header("Content-Type"))
	return err == nil && mt == mediaTypeJSON
}

// decodeJSON decodes exactly one JSON value with no unknown fields.
func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// pathID parses a numeric route parameter.
func pathID(req *httpwire.Request, name string) (int, bool) {
	id, err := strconv.Atoi(req.Param(name))
	if err != nil {
		return 0, false
	}
	return id, true
}

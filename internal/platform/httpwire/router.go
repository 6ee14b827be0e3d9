package httpwire

import (
	"fmt"
	"strings"
)

// ParamMarker prefixes a path segment that binds a named parameter.
const ParamMarker = ':'

type HandlerFunc func(*Request) *Response

type route struct {
	method   string
	pattern  string
	segments []string
	handler  HandlerFunc
}

// match binds parameters when method, segment count and every literal
// segment agree. A parameter never matches an empty segment.
func (rt *route) match(req *Request) (map[string]string, bool) {
	if req.Method != rt.method {
		return nil, false
	}

	segments := strings.Split(req.Path, "/")
	if len(segments) != len(rt.segments) {
		return nil, false
	}

	var params map[string]string
	for i, want := range rt.segments {
		got := segments[i]
		if len(want) > 0 && want[0] == ParamMarker {
			if got == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[want[1:]] = got
			continue
		}
		if want != got {
			return nil, false
		}
	}
	return params, true
}

// Router tries routes in registration order; the first match wins.
type Router struct {
	routes   []*route
	fallback HandlerFunc
}

// NewRouter returns a router that hands unmatched requests to fallback, or
// answers 404 when fallback is nil.
func NewRouter(fallback HandlerFunc) *Router {
	if fallback == nil {
		fallback = NotFound
	}
	return &Router{fallback: fallback}
}

func (r *Router) Handle(method, pattern string, h HandlerFunc) {
	if !strings.HasPrefix(pattern, "/") {
		panic(fmt.Sprintf("httpwire: pattern %q must start with /", pattern))
	}
	if h == nil {
		panic("httpwire: nil handler for " + pattern)
	}
	r.routes = append(r.routes, &route{
		method:   method,
		pattern:  pattern,
		segments: strings.Split(pattern, "/"),
		handler:  h,
	})
}

func (r *Router) GET(pattern string, h HandlerFunc)    { r.Handle("GET", pattern, h) }
func (r *Router) POST(pattern string, h HandlerFunc)   { r.Handle("POST", pattern, h) }
func (r *Router) DELETE(pattern string, h HandlerFunc) { r.Handle("DELETE", pattern, h) }

// Dispatch runs the matching handler and reports the pattern that served
// the request ("" for the fallback).
func (r *Router) Dispatch(req *Request) (*Response, string) {
	for _, rt := range r.routes {
		params, ok := rt.match(req)
		if !ok {
			continue
		}
		req.params = params
		resp := rt.handler(req)
		if resp == nil {
			resp = Text(StatusInternalServerError, "handler produced no response")
		}
		return resp, rt.pattern
	}

	resp := r.fallback(req)
	if resp == nil {
		resp = NotFound(req)
	}
	return resp, ""
}

func NotFound(req *Request) *Response {
	return Text(StatusNotFound, fmt.Sprintf("%s %s not found", req.Method, req.Path))
}

package httpwire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/srgjo27/ticketchief/internal/platform/metrics"
	"github.com/srgjo27/ticketchief/internal/platform/tracing"
)

const DefaultMaxBodyBytes = 1 << 20

// Server answers one request per connection and handles connections one at
// a time, in accept order.
type Server struct {
	router *Router
	logger zerolog.Logger
	tracer trace.Tracer

	readTimeout  time.Duration
	writeTimeout time.Duration
	maxBodyBytes int64
}

type ServerOption func(*Server)

func WithReadTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.writeTimeout = d }
}

func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func NewServer(router *Router, logger zerolog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		router:       router,
		logger:       logger.With().Str("component", "httpwire").Logger(),
		tracer:       tracing.Tracer(),
		readTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections until ctx is cancelled, which also closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info().Msg("HTTP server stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			// Other accept errors, EMFILE for one, are transient.
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("accept failed")
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		s.ServeConn(ctx, conn)
	}
}

// ServeConn reads one request from conn, writes one response and closes it.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	start := time.Now()
	if s.readTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.readTimeout))
	}

	logger := s.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()

	var (
		resp  *Response
		route = "unmatched"
		req   *Request
	)

	req, readErr := ReadRequest(bufio.NewReader(conn), s.maxBodyBytes)
	switch err := readErr; {
	case err == nil:
		resp, route = s.dispatch(logger.WithContext(ctx), req)
	case errors.Is(err, io.EOF):
		logger.Debug().Msg("connection closed before request line")
		return
	case errors.Is(err, ErrBodyTooLarge):
		logger.Warn().Err(err).Msg("rejecting request")
		resp = Text(StatusPayloadTooLarge, "request body too large")
	default:
		logger.Warn().Err(err).Msg("rejecting malformed request")
		resp = Text(StatusBadRequest, "malformed request")
	}

	if s.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := resp.WriteTo(conn); err != nil {
		logger.Warn().Err(err).Msg("failed to write response")
	}
	if readErr != nil {
		drain(conn)
	}

	method, path := "", ""
	if req != nil {
		method, path = req.Method, req.Path
	}
	if route == "" {
		route = "fallback"
	}

	elapsed := time.Since(start)
	metrics.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(resp.Status)).Inc()
	metrics.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

	logger.Info().
		Str("method", method).
		Str("path", path).
		Int("status", resp.Status).
		Dur("duration", elapsed).
		Msg("request")
}

// drain discards what the client is still sending so that closing conn with
// unread input does not reset the connection before the error response is
// delivered.
func drain(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, 64<<10))
}

// dispatch routes req, converting a handler panic into a 500.
func (s *Server) dispatch(ctx context.Context, req *Request) (resp *Response, route string) {
	ctx, span := s.tracer.Start(ctx, "httpwire.dispatch", trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.path", req.Path),
	))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic: %v", rec)
			span.RecordError(err)
			span.SetStatus(codes.Error, "handler panic")
			zerolog.Ctx(ctx).Error().
				Err(err).
				Bytes("stack", debug.Stack()).
				Msg("server error when handling request")
			resp, route = Text(StatusInternalServerError, "internal server error"), "panic"
		}
	}()

	resp, route = s.router.Dispatch(req.WithContext(ctx))
	span.SetAttributes(attribute.Int("http.status_code", resp.Status))
	return resp, route
}

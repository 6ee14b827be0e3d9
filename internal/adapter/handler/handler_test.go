package handler_test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/ticketchief/internal/adapter/handler"
	"github.com/srgjo27/ticketchief/internal/adapter/repository/memory"
	"github.com/srgjo27/ticketchief/internal/core/domain"
	"github.com/srgjo27/ticketchief/internal/core/services"
	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
)

type fixture struct {
	router    *httpwire.Router
	events    *memory.EventRepository
	purchases *services.PurchaseService
	nonce     atomic.Int64
}

var (
	fast = services.Delay{Min: 5 * time.Millisecond, Max: 10 * time.Millisecond}
	slow = services.Delay{Min: time.Hour, Max: time.Hour}
)

func newFixture(t *testing.T, admission, fulfilment services.Delay, events ...domain.Event) *fixture {
	t.Helper()

	if len(events) == 0 {
		events = []domain.Event{{
			Artist:    "Frosty Five",
			Venue:     "Ice Hall",
			Datetime:  time.Date(2026, 12, 24, 20, 0, 0, 0, time.UTC),
			Remaining: 5,
		}}
	}

	repo := memory.NewEventRepository(events)
	guard := services.NewNonceGuard(memory.NewNonceStore(), zerolog.Nop())
	purchases := services.NewPurchaseService(repo, zerolog.Nop(),
		services.WithAdmissionDelay(admission),
		services.WithFulfilmentDelay(fulfilment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = purchases.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		purchases.Close()
		<-done
	})

	r := httpwire.NewRouter(nil)
	handler.Register(r,
		handler.NewTicketHandler(repo, guard),
		handler.NewQueueHandler(purchases, repo, guard),
	)

	return &fixture{router: r, events: repo, purchases: purchases}
}

func (f *fixture) freshNonce() string {
	return "nonce-" + strconv.FormatInt(f.nonce.Add(1), 10)
}

func (f *fixture) do(method, path string, headers map[string]string, body string) *httpwire.Response {
	if headers == nil {
		headers = map[string]string{}
	}
	resp, _ := f.router.Dispatch(&httpwire.Request{
		Method:  method,
		Path:    path,
		Headers: headers,
		Body:    []byte(body),
	})
	return resp
}

func (f *fixture) enqueue(t *testing.T, body string) *httpwire.Response {
	t.Helper()
	return f.do("POST", "/queue", map[string]string{
		"X-Nonce":      f.freshNonce(),
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}, body)
}

func (f *fixture) status(t *testing.T, id int) (int, domain.RequestStatus) {
	t.Helper()
	resp := f.do("GET", "/queue/"+strconv.Itoa(id), map[string]string{"Accept": "application/json"}, "")
	var st domain.RequestStatus
	if resp.Status == httpwire.StatusOK {
		require.NoError(t, json.Unmarshal(resp.Body, &st))
	}
	return resp.Status, st
}

func decode[T any](t *testing.T, resp *httpwire.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body, &v), string(resp.Body))
	return v
}

func errorCode(t *testing.T, resp *httpwire.Response) string {
	t.Helper()
	return decode[map[string]any](t, resp)["code"].(string)
}

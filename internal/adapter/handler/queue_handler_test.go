package handler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/ticketchief/internal/core/services"
	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
)

func TestQueue_PurchaseIsFulfilled(t *testing.T) {
	f := newFixture(t, fast, services.Delay{Min: 100 * time.Millisecond, Max: 100 * time.Millisecond})

	resp := f.enqueue(t, `{"tickets":2}`)
	require.Equal(t, httpwire.StatusCreated, resp.Status, string(resp.Body))
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	created := decode[struct {
		ID int `json:"id"`
	}](t, resp)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, "/queue/1", resp.Headers["Location"])

	assert.Eventually(t, func() bool {
		_, st := f.status(t, created.ID)
		return st.Position >= 1
	}, 2*time.Second, time.Millisecond)

	assert.Eventually(t, func() bool {
		_, st := f.status(t, created.ID)
		return st.Position == 0
	}, 2*time.Second, 5*time.Millisecond)

	code, st := f.status(t, created.ID)
	require.Equal(t, httpwire.StatusOK, code)
	assert.Len(t, st.TicketIDs, 2)
	assert.Equal(t, 2, st.TicketCount)
	assert.Equal(t, 0, st.EventID)

	event, err := f.events.Get(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, event.Remaining)
}

func TestQueue_InsufficientTickets(t *testing.T) {
	f := newFixture(t, fast, fast)

	resp := f.enqueue(t, `{"tickets":10}`)
	require.Equal(t, httpwire.StatusOK, resp.Status)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "insufficient_tickets", body["code"])
	assert.EqualValues(t, 5, body["available"])

	code, _ := f.status(t, 1)
	assert.Equal(t, httpwire.StatusNotFound, code, "no request is created")
}

func TestQueue_EnqueueValidation(t *testing.T) {
	f := newFixture(t, slow, slow)

	ct := "application/json"
	tests := []struct {
		name     string
		headers  map[string]string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing nonce",
			headers:  map[string]string{"Accept": ct, "Content-Type": ct},
			body:     `{"tickets":1}`,
			wantCode: httpwire.StatusBadRequest,
			wantErr:  "invalid_nonce",
		},
		{
			name:     "missing accept",
			headers:  map[string]string{"X-Nonce": "a1", "Content-Type": ct},
			body:     `{"tickets":1}`,
			wantCode: httpwire.StatusNotAcceptable,
			wantErr:  "not_acceptable",
		},
		{
			name:     "xml only",
			headers:  map[string]string{"X-Nonce": "a2", "Accept": "application/xml", "Content-Type": ct},
			body:     `{"tickets":1}`,
			wantCode: httpwire.StatusNotAcceptable,
			wantErr:  "not_acceptable",
		},
		{
			name:     "wrong content type",
			headers:  map[string]string{"X-Nonce": "a3", "Accept": ct, "Content-Type": "text/plain"},
			body:     `{"tickets":1}`,
			wantCode: httpwire.StatusUnsupportedMediaType,
			wantErr:  "unsupported_media_type",
		},
		{
			name:     "malformed json",
			headers:  map[string]string{"X-Nonce": "a4", "Accept": ct, "Content-Type": ct},
			body:     `{"tickets":`,
			wantCode: httpwire.StatusBadRequest,
			wantErr:  "invalid_request_body",
		},
		{
			name:     "unknown field",
			headers:  map[string]string{"X-Nonce": "a5", "Accept": ct, "Content-Type": ct},
			body:     `{"tickets":1,"seats":3}`,
			wantCode: httpwire.StatusBadRequest,
			wantErr:  "invalid_request_body",
		},
		{
			name:     "missing tickets",
			headers:  map[string]string{"X-Nonce": "a6", "Accept": ct, "Content-Type": ct},
			body:     `{}`,
			wantCode: httpwire.StatusBadRequest,
			wantErr:  "missing_required_field",
		},
		{
			name:     "zero tickets",
			headers:  map[string]string{"X-Nonce": "a7", "Accept": ct, "Content-Type": ct},
			body:     `{"tickets":0}`,
			wantCode: httpwire.StatusBadRequest,
			wantErr:  "invalid_quantity",
		},
		{
			name:     "unknown event",
			headers:  map[string]string{"X-Nonce": "a8", "Accept": ct, "Content-Type": ct},
			body:     `{"tickets":1,"eventId":7}`,
			wantCode: httpwire.StatusUnprocessableEntity,
			wantErr:  "event_not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do("POST", "/queue", tt.headers, tt.body)
			assert.Equal(t, tt.wantCode, resp.Status)
			assert.Equal(t, tt.wantErr, errorCode(t, resp))
		})
	}
}

func TestQueue_NonceReplayIsRejected(t *testing.T) {
	f := newFixture(t, slow, slow)

	headers := map[string]string{
		"X-Nonce":      "once",
		"Accept":       "application/json; q=0.9",
		"Content-Type": "application/json; charset=utf-8",
	}
	first := f.do("POST", "/queue", headers, `{"tickets":1}`)
	assert.Equal(t, httpwire.StatusCreated, first.Status)

	replay := f.do("POST", "/queue", headers, `{"tickets":1}`)
	assert.Equal(t, httpwire.StatusBadRequest, replay.Status)
	assert.Equal(t, "invalid_nonce", errorCode(t, replay))
}

func TestQueue_StatusNotFound(t *testing.T) {
	f := newFixture(t, slow, slow)

	for _, path := range []string{"/queue/999", "/queue/abc"} {
		resp := f.do("GET", path, map[string]string{"Accept": "*/*"}, "")
		assert.Equal(t, httpwire.StatusNotFound, resp.Status, path)
		assert.Equal(t, "request_not_found", errorCode(t, resp))
	}

	resp := f.do("GET", "/queue/1", nil, "")
	assert.Equal(t, httpwire.StatusNotAcceptable, resp.Status)
}

func TestQueue_StatusWhileAdmitting(t *testing.T) {
	f := newFixture(t, slow, slow)

	require.Equal(t, httpwire.StatusCreated, f.enqueue(t, `{"tickets":1}`).Status)

	code, st := f.status(t, 1)
	require.Equal(t, httpwire.StatusOK, code)
	assert.Equal(t, -1, st.Position)
	assert.Empty(t, st.TicketIDs)
	assert.NotNil(t, st.TicketIDs)
}

func TestQueue_CancelTwice(t *testing.T) {
	f := newFixture(t, slow, slow)

	require.Equal(t, httpwire.StatusCreated, f.enqueue(t, `{"tickets":1}`).Status)

	first := f.do("DELETE", "/queue/1", map[string]string{"X-Nonce": f.freshNonce()}, "")
	assert.Equal(t, httpwire.StatusNoContent, first.Status)
	assert.Empty(t, first.Body)

	second := f.do("DELETE", "/queue/1", map[string]string{"X-Nonce": f.freshNonce()}, "")
	assert.Contains(t, []int{httpwire.StatusConflict, httpwire.StatusNotFound}, second.Status)

	code, _ := f.status(t, 1)
	assert.Equal(t, httpwire.StatusNotFound, code)
}

func TestQueue_CancelAfterFulfilmentConflicts(t *testing.T) {
	f := newFixture(t, fast, fast)

	require.Equal(t, httpwire.StatusCreated, f.enqueue(t, `{"tickets":1}`).Status)
	require.Eventually(t, func() bool {
		_, st := f.status(t, 1)
		return st.Position == 0
	}, 2*time.Second, 5*time.Millisecond)

	resp := f.do("DELETE", "/queue/1", map[string]string{"X-Nonce": f.freshNonce()}, "")
	assert.Equal(t, httpwire.StatusConflict, resp.Status)
	assert.Equal(t, "already_fulfilled", errorCode(t, resp))
}

func TestQueue_CancelValidation(t *testing.T) {
	f := newFixture(t, slow, slow)

	resp := f.do("DELETE", "/queue/1", nil, "")
	assert.Equal(t, httpwire.StatusBadRequest, resp.Status)

	resp = f.do("DELETE", "/queue/xyz", map[string]string{"X-Nonce": f.freshNonce()}, "")
	assert.Equal(t, httpwire.StatusNotFound, resp.Status)

	resp = f.do("DELETE", "/queue/42", map[string]string{"X-Nonce": f.freshNonce()}, "")
	assert.Equal(t, httpwire.StatusNotFound, resp.Status)
}

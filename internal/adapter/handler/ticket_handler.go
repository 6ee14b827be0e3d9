package handler

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/srgjo27/ticketchief/internal/core/domain"
	"github.com/srgjo27/ticketchief/internal/core/ports"
	"github.com/srgjo27/ticketchief/internal/core/services"
	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
	"github.com/srgjo27/ticketchief/internal/platform/metrics"
)

type eventResponse struct {
	ID       int       `json:"id"`
	Count    int       `json:"count"`
	Artist   string    `json:"artist"`
	Venue    string    `json:"venue"`
	Datetime time.Time `json:"datetime"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:       e.ID,
		Count:    e.Remaining,
		Artist:   e.Artist,
		Venue:    e.Venue,
		Datetime: e.Datetime,
	}
}

type refundRequest struct {
	TicketIDs []string `json:"ticketIds"`
}

type TicketHandler struct {
	events ports.EventRepository
	nonces *services.NonceGuard
}

func NewTicketHandler(events ports.EventRepository, nonces *services.NonceGuard) *TicketHandler {
	return &TicketHandler{events: events, nonces: nonces}
}

func (h *TicketHandler) ListEvents(req *httpwire.Request) *httpwire.Response {
	if !acceptsJSON(req) {
		return writeError(httpwire.StatusNotAcceptable, codeNotAcceptable, "only application/json responses are available")
	}

	events, err := h.events.List(req.Context())
	if err != nil {
		zerolog.Ctx(req.Context()).Error().Err(err).Msg("failed to list events")
		return writeError(httpwire.StatusInternalServerError, codeInternalError, "internal server error")
	}

	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, toEventResponse(e))
	}
	return httpwire.JSON(httpwire.StatusOK, resp)
}

func (h *TicketHandler) GetEvent(req *httpwire.Request) *httpwire.Response {
	if !acceptsJSON(req) {
		return writeError(httpwire.StatusNotAcceptable, codeNotAcceptable, "only application/json responses are available")
	}

	id, ok := pathID(req, "id")
	if !ok {
		return writeError(httpwire.StatusNotFound, codeEventNotFound, "event not found")
	}

	event, err := h.events.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return writeError(httpwire.StatusNotFound, codeEventNotFound, "event not found")
		}
		zerolog.Ctx(req.Context()).Error().Err(err).Int("event_id", id).Msg("failed to get event")
		return writeError(httpwire.StatusInternalServerError, codeInternalError, "internal server error")
	}

	return httpwire.JSON(httpwire.StatusOK, toEventResponse(event))
}

func (h *TicketHandler) Refund(req *httpwire.Request) *httpwire.Response {
	if !h.nonces.Validate(req.Context(), req.Header("X-Nonce")) {
		return writeError(httpwire.StatusBadRequest, codeInvalidNonce, "missing or reused X-Nonce header")
	}

	if !sendsJSON(req) {
		return writeError(httpwire.StatusUnsupportedMediaType, codeUnsupportedMediaType, "request body must be application/json")
	}

	var body refundRequest
	if err := decodeJSON(req.Body, &body); err != nil {
		return writeError(httpwire.StatusBadRequest, codeInvalidRequestBody, "invalid json body")
	}
	if len(body.TicketIDs) == 0 {
		return writeError(httpwire.StatusBadRequest, codeMissingRequiredField, "ticketIds must list at least one ticket")
	}

	id, ok := pathID(req, "id")
	if !ok {
		return writeError(httpwire.StatusNotFound, codeEventNotFound, "event not found")
	}

	err := h.events.Refund(req.Context(), id, body.TicketIDs)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEventNotFound):
		return writeError(httpwire.StatusNotFound, codeEventNotFound, "event not found")
	case errors.Is(err, domain.ErrUnknownTicket):
		return writeError(httpwire.StatusUnprocessableEntity, codeUnknownTicket, err.Error())
	default:
		zerolog.Ctx(req.Context()).Error().Err(err).Int("event_id", id).Msg("failed to refund tickets")
		return writeError(httpwire.StatusInternalServerError, codeInternalError, "internal server error")
	}

	metrics.TicketsRefunded.Add(float64(len(body.TicketIDs)))
	zerolog.Ctx(req.Context()).Info().Int("event_id", id).Int("tickets", len(body.TicketIDs)).Msg("tickets refunded")

	return httpwire.NoContent()
}

package handler

import (
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/srgjo27/ticketchief/internal/core/domain"
	"github.com/srgjo27/ticketchief/internal/core/ports"
	"github.com/srgjo27/ticketchief/internal/core/services"
	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
)

type enqueueRequest struct {
	Tickets *int `json:"tickets"`
	EventID int  `json:"eventId"`
}

type enqueueResponse struct {
	ID int `json:"id"`
}

type insufficientResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Available int    `json:"available"`
}

type QueueHandler struct {
	purchases *services.PurchaseService
	events    ports.EventRepository
	nonces    *services.NonceGuard
}

func NewQueueHandler(purchases *services.PurchaseService, events ports.EventRepository, nonces *services.NonceGuard) *QueueHandler {
	return &QueueHandler{
		purchases: purchases,
		events:    events,
		nonces:    nonces,
	}
}

func (h *QueueHandler) Enqueue(req *httpwire.Request) *httpwire.Response {
	ctx := req.Context()

	if !h.nonces.Validate(ctx, req.Header("X-Nonce")) {
		return writeError(httpwire.StatusBadRequest, codeInvalidNonce, "missing or reused X-Nonce header")
	}
	if !acceptsJSON(req) {
		return writeError(httpwire.StatusNotAcceptable, codeNotAcceptable, "only application/json responses are available")
	}
	if !sendsJSON(req) {
		return writeError(httpwire.StatusUnsupportedMediaType, codeUnsupportedMediaType, "request body must be application/json")
	}

	var body enqueueRequest
	if err := decodeJSON(req.Body, &body); err != nil {
		return writeError(httpwire.StatusBadRequest, codeInvalidRequestBody, "invalid json body")
	}
	if body.Tickets == nil {
		return writeError(httpwire.StatusBadRequest, codeMissingRequiredField, "tickets is required")
	}
	if *body.Tickets < 1 {
		return writeError(httpwire.StatusBadRequest, codeInvalidQuantity, "tickets must be at least 1")
	}
	tickets := *body.Tickets

	event, err := h.events.Get(ctx, body.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return writeError(httpwire.StatusUnprocessableEntity, codeEventNotFound, "event not found")
		}
		zerolog.Ctx(ctx).Error().Err(err).Int("event_id", body.EventID).Msg("failed to get event")
		return writeError(httpwire.StatusInternalServerError, codeInternalError, "internal server error")
	}

	// Not enough stock is reported in-band and no request is created.
	if !event.CanSatisfy(tickets) {
		return httpwire.JSON(httpwire.StatusOK, insufficientResponse{
			Error:     "not enough tickets available",
			Code:      codeInsufficientTickets,
			Available: event.Remaining,
		})
	}

	pr, err := h.purchases.RequestPurchase(ctx, body.EventID, tickets)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEventNotFound):
		return writeError(httpwire.StatusUnprocessableEntity, codeEventNotFound, "event not found")
	case errors.Is(err, domain.ErrInvalidTicketCount):
		return writeError(httpwire.StatusBadRequest, codeInvalidQuantity, "tickets must be at least 1")
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create purchase request")
		return writeError(httpwire.StatusInternalServerError, codeInternalError, "internal server error")
	}

	resp := httpwire.JSON(httpwire.StatusCreated, enqueueResponse{ID: pr.ID})
	resp.SetHeader("Location", "/queue/"+strconv.Itoa(pr.ID))
	return resp
}

func (h *QueueHandler) Status(req *httpwire.Request) *httpwire.Response {
	if !acceptsJSON(req) {
		return writeError(httpwire.StatusNotAcceptable, codeNotAcceptable, "only application/json responses are available")
	}

	id, ok := pathID(req, "id")
	if !ok {
		return writeError(httpwire.StatusNotFound, codeRequestNotFound, "purchase request not found")
	}

	status, err := h.purchases.GetRequestStatus(req.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return writeError(httpwire.StatusNotFound, codeRequestNotFound, "purchase request not found")
		}
		zerolog.Ctx(req.Context()).Error().Err(err).Int("request_id", id).Msg("failed to get request status")
		return writeError(httpwire.StatusInternalServerError, codeInternalError, "internal server error")
	}

	return httpwire.JSON(httpwire.StatusOK, status)
}

func (h *QueueHandler) Cancel(req *httpwire.Request) *httpwire.Response {
	if !h.nonces.Validate(req.Context(), req.Header("X-Nonce")) {
		return writeError(httpwire.StatusBadRequest, codeInvalidNonce, "missing or reused X-Nonce header")
	}

	id, ok := pathID(req, "id")
	if !ok {
		return writeError(httpwire.StatusNotFound, codeRequestNotFound, "purchase request not found")
	}

	cancelled, err := h.purchases.CancelPurchaseRequest(req.Context(), id)
	switch {
	case err == nil && cancelled:
		return httpwire.NoContent()
	case err == nil:
		return writeError(httpwire.StatusConflict, codeAlreadyFulfilled, "purchase request already fulfilled")
	case errors.Is(err, domain.ErrRequestNotFound):
		return writeError(httpwire.StatusNotFound, codeRequestNotFound, "purchase request not found")
	default:
		zerolog.Ctx(req.Context()).Error().Err(err).Int("request_id", id).Msg("failed to cancel purchase request")
		return writeError(httpwire.StatusInternalServerError, codeInternalError, "internal server error")
	}
}

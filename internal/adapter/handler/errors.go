package handler

import (
	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
)

const (
	codeInvalidNonce         = "invalid_nonce"
	codeNotAcceptable        = "not_acceptable"
	codeUnsupportedMediaType = "unsupported_media_type"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidQuantity      = "invalid_quantity"
	codeEventNotFound        = "event_not_found"
	codeRequestNotFound      = "request_not_found"
	codeAlreadyFulfilled     = "already_fulfilled"
	codeInsufficientTickets  = "insufficient_tickets"
	codeUnknownTicket        = "unknown_ticket"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(status int, code, msg string) *httpwire.Response {
	return httpwire.JSON(status, errorResponse{Error: msg, Code: code})
}

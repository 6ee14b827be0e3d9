package domain

import "errors"

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrRequestNotFound    = errors.New("purchase request not found")
	ErrInvalidTicketCount = errors.New("invalid ticket count")
	ErrUnknownTicket      = errors.New("ticket not issued by this event")
	ErrEngineRunning      = errors.New("fulfillment consumer already running")
	ErrEngineStopped      = errors.New("purchase engine stopped")
)

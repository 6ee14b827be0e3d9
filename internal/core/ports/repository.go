package ports

import (
	"context"

	"github.com/srgjo27/ticketchief/internal/core/domain"
)

// EventRepository is the live ticket inventory.
type EventRepository interface {
	List(ctx context.Context) ([]domain.Event, error)
	Get(ctx context.Context, eventID int) (domain.Event, error)
	// Sell grants min(requested, remaining) tickets and returns their ids.
	Sell(ctx context.Context, eventID int, requested int) ([]string, error)
	Refund(ctx context.Context, eventID int, ticketIDs []string) error
}

// EventCatalog loads the initial set of events at startup.
type EventCatalog interface {
	Load(ctx context.Context) ([]domain.Event, error)
}

// NonceStore records single-use tokens. Add reports false when the token
// was already present.
type NonceStore interface {
	Add(ctx context.Context, token string) (bool, error)
}

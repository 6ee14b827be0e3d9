package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/srgjo27/ticketchief/internal/core/domain"
)

// EventCatalog loads the initial inventory from the events table. Rows are
// numbered by their order, so ids match the in-memory inventory.
type EventCatalog struct {
	db *sql.DB
}

func NewEventCatalog(db *sql.DB) *EventCatalog {
	return &EventCatalog{db: db}
}

func (c *EventCatalog) Load(ctx context.Context) ([]domain.Event, error) {
	query := `
	SELECT artist, venue, starts_at, ticket_count
	FROM events
	ORDER BY id
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			event domain.Event
			venue sql.NullString
		)
		if err := rows.Scan(
			&event.Artist,
			&venue,
			&event.Datetime,
			&event.Remaining,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		event.ID = len(events)
		event.Venue = venue.String
		if event.Remaining < 0 {
			event.Remaining = 0
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("load events: %w", domain.ErrEventNotFound)
	}

	return events, nil
}

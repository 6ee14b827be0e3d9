package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/srgjo27/ticketchief/internal/core/domain"
)

type EventRepository struct {
	mu     sync.RWMutex
	events []*eventRecord
}

type eventRecord struct {
	event domain.Event
	// outstanding holds ticket ids that were sold and not refunded.
	outstanding map[string]struct{}
}

// NewEventRepository takes ownership of a copy of events, re-numbering them
// by position.
func NewEventRepository(events []domain.Event) *EventRepository {
	r := &EventRepository{events: make([]*eventRecord, 0, len(events))}
	for i, e := range events {
		e.ID = i
		if e.Remaining < 0 {
			e.Remaining = 0
		}
		r.events = append(r.events, &eventRecord{event: e, outstanding: make(map[string]struct{})})
	}
	return r
}

func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]domain.Event, 0, len(r.events))
	for _, rec := range r.events {
		events = append(events, rec.event)
	}
	return events, nil
}

func (r *EventRepository) Get(ctx context.Context, eventID int) (domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.lookup(eventID)
	if err != nil {
		return domain.Event{}, err
	}
	return rec.event, nil
}

func (r *EventRepository) Sell(ctx context.Context, eventID int, requested int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.lookup(eventID)
	if err != nil {
		return nil, err
	}

	granted := min(max(requested, 0), rec.event.Remaining)
	ticketIDs := make([]string, 0, granted)
	for range granted {
		id := uuid.NewString()
		rec.outstanding[id] = struct{}{}
		ticketIDs = append(ticketIDs, id)
	}
	rec.event.Remaining -= granted

	return ticketIDs, nil
}

// Refund returns tickets to the pool. The whole batch is rejected if any id
// is unknown, already refunded, or repeated.
func (r *EventRepository) Refund(ctx context.Context, eventID int, ticketIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.lookup(eventID)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(ticketIDs))
	for _, id := range ticketIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("ticket %s listed twice: %w", id, domain.ErrUnknownTicket)
		}
		if _, ok := rec.outstanding[id]; !ok {
			return fmt.Errorf("ticket %s: %w", id, domain.ErrUnknownTicket)
		}
		seen[id] = struct{}{}
	}

	for _, id := range ticketIDs {
		delete(rec.outstanding, id)
	}
	rec.event.Remaining += len(ticketIDs)

	return nil
}

func (r *EventRepository) lookup(eventID int) (*eventRecord, error) {
	if eventID < 0 || eventID >= len(r.events) {
		return nil, fmt.Errorf("event %d: %w", eventID, domain.ErrEventNotFound)
	}
	return r.events[eventID], nil
}

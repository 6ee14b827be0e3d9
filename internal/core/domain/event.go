package domain

import "time"

// Event is a sellable show. ID is the event's position in the catalog.
type Event struct {
	ID        int
	Artist    string
	Venue     string
	Datetime  time.Time
	Remaining int
}

func (e *Event) IsSoldOut() bool {
	return e.Remaining <= 0
}

// CanSatisfy reports whether n tickets are available right now. The answer
// can go stale before fulfillment, which then grants a partial amount.
func (e *Event) CanSatisfy(n int) bool {
	return n <= e.Remaining
}

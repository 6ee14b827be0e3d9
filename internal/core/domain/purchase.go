package domain

type RequestState string

const (
	RequestCreated    RequestState = "CREATED"
	RequestAdmitting  RequestState = "ADMITTING"
	RequestQueued     RequestState = "QUEUED"
	RequestFulfilling RequestState = "FULFILLING"
	RequestFulfilled  RequestState = "FULFILLED"
	RequestCancelled  RequestState = "CANCELLED"
)

// Position values reported by RequestStatus besides 1-based queue ranks.
const (
	PositionFulfilled  = 0
	PositionNotInQueue = -1
)

type PurchaseRequest struct {
	ID          int
	EventID     int
	TicketCount int
	TicketIDs   []string
	State       RequestState
}

func (r *PurchaseRequest) IsFulfilled() bool {
	return r.State == RequestFulfilled
}

// IsCancellable reports whether the request has not yet passed the
// fulfillment commit point.
func (r *PurchaseRequest) IsCancellable() bool {
	switch r.State {
	case RequestCreated, RequestAdmitting, RequestQueued, RequestFulfilling:
		return true
	default:
		return false
	}
}

// RequestStatus is a read-only snapshot of a purchase request.
type RequestStatus struct {
	ID          int          `json:"id"`
	EventID     int          `json:"eventId"`
	TicketCount int          `json:"tickets"`
	Position    int          `json:"position"`
	TicketIDs   []string     `json:"ticketIds"`
	State       RequestState `json:"state"`
}

package handler

import "github.com/srgjo27/ticketchief/internal/platform/httpwire"

// Register binds every API route. Anything unmatched falls through to the
// router's fallback.
func Register(r *httpwire.Router, tickets *TicketHandler, queue *QueueHandler) {
	r.GET("/tickets", tickets.ListEvents)
	r.GET("/tickets/:id", tickets.GetEvent)
	r.POST("/tickets/:id/refund", tickets.Refund)

	r.POST("/queue", queue.Enqueue)
	r.GET("/queue/:id", queue.Status)
	r.DELETE("/queue/:id", queue.Cancel)

	r.GET("/snowmon", Snowmon)
}

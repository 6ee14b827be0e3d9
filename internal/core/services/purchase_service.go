package services

import (
	"container/list"
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/srgjo27/ticketchief/internal/core/domain"
	"github.com/srgjo27/ticketchief/internal/core/ports"
	"github.com/srgjo27/ticketchief/internal/platform/metrics"
	"github.com/srgjo27/ticketchief/internal/platform/tracing"
)

// Delay is a half-open range [Min, Max) from which simulated latencies are
// drawn uniformly.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

func (d Delay) Draw() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min)
}

var (
	DefaultAdmissionDelay  = Delay{Min: 2 * time.Second, Max: 5 * time.Second}
	DefaultFulfilmentDelay = Delay{Min: 4 * time.Second, Max: 8 * time.Second}
)

type PurchaseService struct {
	events ports.EventRepository
	logger zerolog.Logger
	tracer trace.Tracer

	admissionDelay  Delay
	fulfilmentDelay Delay

	mu       sync.Mutex
	lastID   int
	requests map[int]*pendingRequest
	queue    *list.List
	running  bool

	wake       chan struct{}
	stop       chan struct{}
	stopOnce   sync.Once
	admissions sync.WaitGroup
}

type pendingRequest struct {
	req *domain.PurchaseRequest
	// elem is non-nil while the request sits in the admission queue.
	elem            *list.Element
	cancelAdmission chan struct{}
}

type PurchaseServiceOption func(*PurchaseService)

// WithAdmissionDelay overrides the simulated validation latency.
func WithAdmissionDelay(d Delay) PurchaseServiceOption {
	return func(s *PurchaseService) {
		if d.Min >= 0 {
			s.admissionDelay = d
		}
	}
}

// WithFulfilmentDelay overrides the simulated payment capture latency.
func WithFulfilmentDelay(d Delay) PurchaseServiceOption {
	return func(s *PurchaseService) {
		if d.Min >= 0 {
			s.fulfilmentDelay = d
		}
	}
}

func NewPurchaseService(events ports.EventRepository, logger zerolog.Logger, opts ...PurchaseServiceOption) *PurchaseService {
	s := &PurchaseService{
		events:          events,
		logger:          logger.With().Str("component", "purchase").Logger(),
		tracer:          tracing.Tracer(),
		admissionDelay:  DefaultAdmissionDelay,
		fulfilmentDelay: DefaultFulfilmentDelay,
		requests:        make(map[int]*pendingRequest),
		queue:           list.New(),
		wake:            make(chan struct{}, 1),
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestPurchase registers a new request and schedules its admission. It
// never waits for the admission delay.
func (s *PurchaseService) RequestPurchase(ctx context.Context, eventID, ticketCount int) (domain.PurchaseRequest, error) {
	if ticketCount < 1 {
		return domain.PurchaseRequest{}, domain.ErrInvalidTicketCount
	}

	if _, err := s.events.Get(ctx, eventID); err != nil {
		return domain.PurchaseRequest{}, fmt.Errorf("request purchase for event %d: %w", eventID, err)
	}

	s.mu.Lock()
	select {
	case <-s.stop:
		s.mu.Unlock()
		return domain.PurchaseRequest{}, domain.ErrEngineStopped
	default:
	}

	s.lastID++
	p := &pendingRequest{
		req: &domain.PurchaseRequest{
			ID:          s.lastID,
			EventID:     eventID,
			TicketCount: ticketCount,
			State:       domain.RequestCreated,
		},
		cancelAdmission: make(chan struct{}),
	}
	s.requests[p.req.ID] = p

	p.req.State = domain.RequestAdmitting
	delay := s.admissionDelay.Draw()
	s.admissions.Add(1)
	created := *p.req
	s.mu.Unlock()

	go s.admit(created.ID, p.cancelAdmission, delay)

	metrics.PurchaseRequests.WithLabelValues(metrics.OutcomeCreated).Inc()
	s.logger.Info().
		Int("request_id", created.ID).
		Int("event_id", eventID).
		Int("tickets", ticketCount).
		Dur("admission_delay", delay).
		Msg("purchase request created")

	return created, nil
}

func (s *PurchaseService) admit(id int, cancel <-chan struct{}, delay time.Duration) {
	defer s.admissions.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-cancel:
		s.logger.Debug().Int("request_id", id).Msg("admission interrupted")
		return
	case <-s.stop:
		return
	case <-timer.C:
	}

	_, span := s.tracer.Start(context.Background(), "purchase.admit",
		trace.WithAttributes(attribute.Int("purchase.id", id)))
	defer span.End()

	s.mu.Lock()
	p, ok := s.requests[id]
	if !ok || p.req.State != domain.RequestAdmitting {
		s.mu.Unlock()
		span.AddEvent("request cancelled before admission")
		return
	}
	p.elem = s.queue.PushBack(id)
	p.req.State = domain.RequestQueued
	depth := s.queue.Len()
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	metrics.PurchaseRequests.WithLabelValues(metrics.OutcomeAdmitted).Inc()
	metrics.QueueDepth.Set(float64(depth))
	s.logger.Info().Int("request_id", id).Int("position", depth).Msg("purchase request admitted")
}

// Run is the single fulfillment consumer. It drains the admission queue in
// FIFO order until ctx is cancelled or the service is closed.
func (s *PurchaseService) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.ErrEngineRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info().Msg("fulfillment consumer started")

	for {
		id, ok := s.beginFulfilment()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-ctx.Done():
				s.logger.Info().Msg("fulfillment consumer stopped")
				return nil
			case <-s.stop:
				return nil
			}
		}

		timer := time.NewTimer(s.fulfilmentDelay.Draw())
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.abandonFulfilment(id)
			s.logger.Info().Msg("fulfillment consumer stopped")
			return nil
		case <-s.stop:
			timer.Stop()
			s.abandonFulfilment(id)
			return nil
		}

		s.commit(ctx, id)
	}
}

func (s *PurchaseService) beginFulfilment() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	front := s.queue.Front()
	if front == nil {
		return 0, false
	}
	id := front.Value.(int)
	s.requests[id].req.State = domain.RequestFulfilling

	s.logger.Debug().Int("request_id", id).Msg("purchase request being fulfilled")
	return id, true
}

func (s *PurchaseService) abandonFulfilment(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.requests[id]; ok && p.req.State == domain.RequestFulfilling {
		p.req.State = domain.RequestQueued
	}
}

// commit grants tickets to id if it is still at the head of the queue. It
// holds the engine lock across the inventory update so a concurrent cancel
// observes either the queued or the fulfilled request, never both.
func (s *PurchaseService) commit(ctx context.Context, id int) {
	ctx, span := s.tracer.Start(ctx, "purchase.fulfil",
		trace.WithAttributes(attribute.Int("purchase.id", id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	front := s.queue.Front()
	if front == nil || front.Value.(int) != id {
		span.AddEvent("request removed during payment processing")
		s.logger.Info().Int("request_id", id).Msg("purchase request left the queue before fulfillment")
		return
	}

	p := s.requests[id]
	s.queue.Remove(front)
	p.elem = nil
	metrics.QueueDepth.Set(float64(s.queue.Len()))

	ticketIDs, err := s.events.Sell(ctx, p.req.EventID, p.req.TicketCount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sell failed")
		s.logger.Error().Err(err).Int("request_id", id).Msg("failed to sell tickets")
	}

	p.req.TicketIDs = append(p.req.TicketIDs, ticketIDs...)
	p.req.State = domain.RequestFulfilled

	outcome := metrics.OutcomeFulfilled
	if len(ticketIDs) < p.req.TicketCount {
		outcome = metrics.OutcomePartial
	}
	metrics.PurchaseRequests.WithLabelValues(outcome).Inc()
	metrics.TicketsSold.Add(float64(len(ticketIDs)))

	span.SetAttributes(attribute.Int("purchase.granted", len(ticketIDs)))
	s.logger.Info().
		Int("request_id", id).
		Int("requested", p.req.TicketCount).
		Int("granted", len(ticketIDs)).
		Msg("purchase request fulfilled")
}

// CancelPurchaseRequest withdraws a request that has not been fulfilled yet.
// It returns false without error when the request is already fulfilled.
func (s *PurchaseService) CancelPurchaseRequest(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.requests[id]
	if !ok {
		return false, fmt.Errorf("cancel purchase request %d: %w", id, domain.ErrRequestNotFound)
	}
	if !p.req.IsCancellable() {
		return false, nil
	}

	switch p.req.State {
	case domain.RequestCreated, domain.RequestAdmitting:
		close(p.cancelAdmission)
	case domain.RequestQueued, domain.RequestFulfilling:
		s.queue.Remove(p.elem)
		p.elem = nil
		metrics.QueueDepth.Set(float64(s.queue.Len()))
	}

	p.req.State = domain.RequestCancelled
	delete(s.requests, id)

	metrics.PurchaseRequests.WithLabelValues(metrics.OutcomeCancelled).Inc()
	s.logger.Info().Int("request_id", id).Msg("purchase request cancelled")

	return true, nil
}

func (s *PurchaseService) GetRequestStatus(ctx context.Context, id int) (domain.RequestStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.requests[id]
	if !ok {
		return domain.RequestStatus{}, fmt.Errorf("request status %d: %w", id, domain.ErrRequestNotFound)
	}

	status := domain.RequestStatus{
		ID:          p.req.ID,
		EventID:     p.req.EventID,
		TicketCount: p.req.TicketCount,
		Position:    s.positionOf(p),
		TicketIDs:   append([]string{}, p.req.TicketIDs...),
		State:       p.req.State,
	}
	return status, nil
}

// positionOf must be called with s.mu held.
func (s *PurchaseService) positionOf(p *pendingRequest) int {
	if p.req.IsFulfilled() {
		return domain.PositionFulfilled
	}
	if p.elem == nil {
		return domain.PositionNotInQueue
	}

	position := 1
	for e := s.queue.Front(); e != nil; e = e.Next() {
		if e == p.elem {
			return position
		}
		position++
	}
	return domain.PositionNotInQueue
}

// Close stops pending admissions and waits for their goroutines. Requests
// still admitting are left in place and never reach the queue.
func (s *PurchaseService) Close() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.stop)
		s.mu.Unlock()
	})
	s.admissions.Wait()
}

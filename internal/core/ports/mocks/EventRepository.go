package mocks

import (
	"context"

	"github.com/srgjo27/ticketchief/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// EventRepository is a testify mock for ports.EventRepository.
type EventRepository struct {
	mock.Mock
}

func (m *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	ret := m.Called(ctx)

	var events []domain.Event
	if v := ret.Get(0); v != nil {
		events = v.([]domain.Event)
	}
	return events, ret.Error(1)
}

func (m *EventRepository) Get(ctx context.Context, eventID int) (domain.Event, error) {
	ret := m.Called(ctx, eventID)
	return ret.Get(0).(domain.Event), ret.Error(1)
}

func (m *EventRepository) Sell(ctx context.Context, eventID int, requested int) ([]string, error) {
	ret := m.Called(ctx, eventID, requested)

	var ids []string
	if v := ret.Get(0); v != nil {
		ids = v.([]string)
	}
	return ids, ret.Error(1)
}

func (m *EventRepository) Refund(ctx context.Context, eventID int, ticketIDs []string) error {
	ret := m.Called(ctx, eventID, ticketIDs)
	return ret.Error(0)
}

// NewEventRepository creates a mock and asserts its expectations on cleanup.
func NewEventRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *EventRepository {
	m := &EventRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

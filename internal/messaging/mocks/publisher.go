package mocks

import (
	"context"

	"companion-server/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock TurnEventPublisher
type TurnEventPublisher struct {
	mock.Mock
}

func (m *TurnEventPublisher) PublishTurnEvent(ctx context.Context, payload messaging.TurnEventPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

package mocks

import (
	"context"

	"companion-server/internal/ai"

	"github.com/stretchr/testify/mock"
)

// Mock NarrationProvider
type NarrationProvider struct {
	mock.Mock
}

func (m *NarrationProvider) Narrate(ctx context.Context, userID string, req ai.NarrationRequest) (*ai.NarrationResult, error) {
	args := m.Called(ctx, userID, req)
	result, _ := args.Get(0).(*ai.NarrationResult)
	return result, args.Error(1)
}

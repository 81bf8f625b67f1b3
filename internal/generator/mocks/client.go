package mocks

import (
	"context"

	"fable-server/internal/generator"

	"github.com/stretchr/testify/mock"
)

// Mock generator Client
type Client struct {
	mock.Mock
}

func (m *Client) GenerateChoice(ctx context.Context, req generator.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

package mocks

import (
	"context"

	"fable-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// Mock ProfileRepository
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) Upsert(ctx context.Context, profile *models.ReaderProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *ProfileRepository) GetByVisitorID(ctx context.Context, visitorID string) (*models.ReaderProfile, error) {
	args := m.Called(ctx, visitorID)
	profile, _ := args.Get(0).(*models.ReaderProfile)
	return profile, args.Error(1)
}

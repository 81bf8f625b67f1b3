package repository

import (
	"context"

	"fable-server/internal/models"
)

//go:generate mockery --name ProfileRepository --output ./mocks --outpkg mocks --case=underscore
type ProfileRepository interface {
	// Upsert creates or replaces the profile keyed by visitor id.
	Upsert(ctx context.Context, profile *models.ReaderProfile) error

	// GetByVisitorID returns models.ErrNotFound when the visitor has no
	// profile yet.
	GetByVisitorID(ctx context.Context, visitorID string) (*models.ReaderProfile, error)
}

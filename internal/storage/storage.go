package storage

import (
	"context"
	"errors"

	"github.com/xaenox/feature-scout/internal/models"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint (user email or
	// username, feature name) would be violated.
	ErrDuplicate = errors.New("already exists")
)

type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUserScore(ctx context.Context, userID int64, score float64) error

	CreateFeature(ctx context.Context, feature *models.Feature) error
	GetFeature(ctx context.Context, id int64) (*models.Feature, error)
	ListFeatures(ctx context.Context, offset, limit int) ([]*models.Feature, error)
	UpdateFeaturePopularity(ctx context.Context, featureID int64, popularity float64) error

	CreateInteraction(ctx context.Context, interaction *models.Interaction) error
	UpdateInteraction(ctx context.Context, interaction *models.Interaction) error
	GetInteraction(ctx context.Context, id int64) (*models.Interaction, error)
	FindInteraction(ctx context.Context, userID, featureID int64) (*models.Interaction, error)
	ListUserInteractions(ctx context.Context, userID int64) ([]*models.Interaction, error)
	ListFeatureInteractions(ctx context.Context, featureID int64) ([]*models.Interaction, error)

	SaveSnapshot(ctx context.Context, snapshot *models.ContextSnapshot) error
	ListUserSnapshots(ctx context.Context, userID int64, limit int) ([]*models.ContextSnapshot, error)

	Close() error
}

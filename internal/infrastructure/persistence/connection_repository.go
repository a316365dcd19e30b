package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/social"
	"github.com/rainbow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormConnectionRepository implements social.ConnectionRepository using GORM.
// Edges are written by GormConnectionRequestRepository.AcceptPending; this
// repository only reads them.
type GormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GormConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// Exists reports whether the two users are connected
func (r *GormConnectionRepository) Exists(ctx context.Context, a, b uuid.UUID) (bool, error) {
	lo, hi := social.NormalizePair(a, b)
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConnectionModel{}).
		Where("user_lo = ? AND user_hi = ?", lo, hi).
		Count(&count).Error
	return count > 0, err
}

// PartnerIDs returns the peers connected to the given user
func (r *GormConnectionRepository) PartnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var connectionModels []models.ConnectionModel
	err := r.db.WithContext(ctx).
		Where("user_lo = ? OR user_hi = ?", userID, userID).
		Order("created_at ASC").
		Find(&connectionModels).Error
	if err != nil {
		return nil, err
	}

	partners := make([]uuid.UUID, len(connectionModels))
	for i, model := range connectionModels {
		partners[i] = model.ToDomain().Other(userID)
	}
	return partners, nil
}

// Count returns how many connections the given user has
func (r *GormConnectionRepository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConnectionModel{}).
		Where("user_lo = ? OR user_hi = ?", userID, userID).
		Count(&count).Error
	return count, err
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"github.com/rainbow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormConnectionRequestRepository implements social.ConnectionRequestRepository using GORM
type GormConnectionRequestRepository struct {
	db *gorm.DB
}

// NewGormConnectionRequestRepository creates a new GormConnectionRequestRepository
func NewGormConnectionRequestRepository(db *gorm.DB) *GormConnectionRequestRepository {
	return &GormConnectionRequestRepository{db: db}
}

// FindByID finds a connection request by its ID
func (r *GormConnectionRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*social.ConnectionRequest, error) {
	var model models.ConnectionRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPair returns the single request for an unordered pair, if any
func (r *GormConnectionRequestRepository) FindByPair(ctx context.Context, a, b uuid.UUID) (*social.ConnectionRequest, error) {
	lo, hi := social.NormalizePair(a, b)
	var model models.ConnectionRequestModel
	if err := r.db.WithContext(ctx).
		Where("pair_lo = ? AND pair_hi = ?", lo, hi).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPendingTo returns pending requests addressed to the given user, oldest first
func (r *GormConnectionRequestRepository) FindPendingTo(ctx context.Context, userID uuid.UUID) ([]social.ConnectionRequest, error) {
	var requestModels []models.ConnectionRequestModel
	err := r.db.WithContext(ctx).
		Where("to_user_id = ? AND status = ?", userID, string(social.RequestStatusPending)).
		Order("created_at ASC").
		Find(&requestModels).Error
	if err != nil {
		return nil, err
	}

	requests := make([]social.ConnectionRequest, len(requestModels))
	for i, model := range requestModels {
		requests[i] = *model.ToDomain()
	}
	return requests, nil
}

// CountByFromUserSince counts requests the user created after the cutoff
func (r *GormConnectionRequestRepository) CountByFromUserSince(ctx context.Context, fromUserID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConnectionRequestModel{}).
		Where("from_user_id = ? AND created_at >= ?", fromUserID, since).
		Count(&count).Error
	return count, err
}

// Create inserts the request. A concurrent insert for the same pair hits the
// unique (pair_lo, pair_hi) index; ON CONFLICT DO NOTHING turns that into
// shared.ErrAlreadyExists instead of a driver error.
func (r *GormConnectionRequestRepository) Create(ctx context.Context, req *social.ConnectionRequest) error {
	var model models.ConnectionRequestModel
	model.FromDomain(req)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_lo"}, {Name: "pair_hi"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// AcceptPending atomically flips the pending request from->to to accepted and
// creates the connection edge in the same transaction. The conditional UPDATE
// carries the whole race: two concurrent accepts see RowsAffected 1 and 0, and
// only the winner inserts the edge.
func (r *GormConnectionRequestRepository) AcceptPending(ctx context.Context, fromUserID, toUserID uuid.UUID) (*social.ConnectionRequest, error) {
	var model models.ConnectionRequestModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.ConnectionRequestModel{}).
			Where("from_user_id = ? AND to_user_id = ? AND status = ?",
				fromUserID, toUserID, string(social.RequestStatusPending)).
			Updates(map[string]interface{}{
				"status":     string(social.RequestStatusAccepted),
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrRequestNotFound
		}

		if err := tx.
			Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
			First(&model).Error; err != nil {
			return err
		}

		var edge models.ConnectionModel
		edge.FromDomain(social.NewConnection(fromUserID, toUserID))
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
	})
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

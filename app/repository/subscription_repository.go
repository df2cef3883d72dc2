package repository

import (
	"context"

	"github.com/ManuelReschke/SubTrackr/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts a new subscription row. Associations are never written.
func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(sub).Error
}

// GetByID retrieves a subscription with its plan, service and category
func (r *subscriptionRepository) GetByID(ctx context.Context, id uint64) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).Preload("Plan.Service.Category").First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListActiveByUser retrieves all active subscriptions of a user
func (r *subscriptionRepository) ListActiveByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan.Service.Category").
		Where("user_id = ? AND active = ?", userID, true).
		Order("id ASC").
		Find(&subs).Error
	return subs, err
}

// Delete hard deletes a subscription and reports the affected rows
func (r *subscriptionRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Subscription{}, id)
	return res.RowsAffected, res.Error
}

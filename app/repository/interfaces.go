package repository

import (
	"context"

	"github.com/ManuelReschke/SubTrackr/app/models"
	"gorm.io/gorm"
)

// CatalogWriter holds the natural-key upserts used by the catalog sync.
type CatalogWriter interface {
	UpsertCategory(ctx context.Context, name string) (*models.Category, error)
	UpsertService(ctx context.Context, name string, categoryID uint) (*models.Service, error)
	UpsertPlan(ctx context.Context, plan *models.Plan) error
}

// CatalogRepository defines the interface for catalog (category/service/plan) operations
type CatalogRepository interface {
	CatalogWriter
	// Transaction runs fn against a writer bound to a single database
	// transaction. Returning an error from fn rolls back every write.
	Transaction(ctx context.Context, fn func(tx CatalogWriter) error) error
	GetPlan(ctx context.Context, externalID string) (*models.Plan, error)
	SearchPlans(ctx context.Context, query string, limit int) ([]models.Plan, error)
	ListPlansByFeedOrder(ctx context.Context, limit int) ([]models.Plan, error)
	ListPlansByPrice(ctx context.Context, category string) ([]models.Plan, error)
	ListCategoryNames(ctx context.Context) ([]string, error)
	Counts(ctx context.Context) (*CatalogCounts, error)
}

// SubscriptionRepository defines the interface for user subscription operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id uint64) (*models.Subscription, error)
	ListActiveByUser(ctx context.Context, userID string) ([]models.Subscription, error)
	Delete(ctx context.Context, id uint64) (int64, error)
}

// CatalogCounts holds row counts of the catalog tables.
type CatalogCounts struct {
	Categories int64 `json:"categories"`
	Services   int64 `json:"services"`
	Plans      int64 `json:"plans"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	Catalog      CatalogRepository
	Subscription SubscriptionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Catalog:      NewCatalogRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}

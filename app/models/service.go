package models

import "time"

// Service is a subscription platform (Netflix, Spotify, ...). CategoryID is
// overwritten on every sync; the feed decides which category owns it.
type Service struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(191);not null" json:"name"`
	NameKey    string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_catalog_services_name_key" json:"-"`
	CategoryID uint      `gorm:"not null;index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "catalog_services"
}

// CategoryName returns the owning category name or "" when not loaded.
func (s *Service) CategoryName() string {
	if s == nil || s.Category == nil {
		return ""
	}
	return s.Category.Name
}

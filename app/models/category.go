package models

import (
	"strings"
	"time"
)

// DefaultCategoryName is used for feed records that carry no category.
const DefaultCategoryName = "Otros"

// Category is the top level of the catalog hierarchy. NameKey is the natural
// key used by the sync upsert; Name keeps the spelling of the latest sync.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(191);not null" json:"name"`
	NameKey   string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_catalog_categories_name_key" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "catalog_categories"
}

// NaturalKey normalizes a category or service name into its unique key.
// Keys are trimmed and case-folded so "Streaming" and " streaming" collapse
// into one row.
func NaturalKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

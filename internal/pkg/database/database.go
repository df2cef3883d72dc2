package database

import "gorm.io/gorm"

// DB is the shared connection, set by SetupDatabase.
var DB *gorm.DB

// GetDB returns the shared connection.
func GetDB() *gorm.DB {
	return DB
}

package database

import "gorm.io/gorm"

// Database wraps the gorm handle and exposes the storage operations the
// rest of the application depends on.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

package models

import "gorm.io/gorm"

// Init creates or updates the tables owned by this package
func Init(db *gorm.DB) error {
	return db.AutoMigrate(&InviteCode{})
}

package repository

import "gorm.io/gorm"

// Migrate creates or updates the schema for every table the
// repositories use. Called by cmd/api on boot and by cmd/seed.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&carModel{},
		&bookingModel{},
		&sessionModel{},
		&notificationModel{},
	)
}

package domain

import "time"

type CarStatus string

const (
	CarActive      CarStatus = "active"
	CarMaintenance CarStatus = "maintenance"
	CarInactive    CarStatus = "inactive"
)

type Car struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Brand       string    `json:"brand"`
	PricePerDay float64   `json:"price_per_day" validate:"required,gt=0"`
	LocationTag string    `json:"location"`
	Status      CarStatus `json:"status"`

	// Available is a materialized flag kept in sync by the availability
	// index. The source of truth for a concrete date range is the absence
	// of a conflicting booking in the ledger.
	Available bool `json:"available"`

	Rating    float64   `json:"rating"`
	Reviews   int       `json:"reviews"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package repository

import (
	"context"
	"time"

	"carrental/internal/domain"

	"gorm.io/gorm"
)

type CarRepository struct {
	db *gorm.DB
}

func NewCarRepository(db *gorm.DB) *CarRepository {
	return &CarRepository{db: db}
}

type carModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	OwnerID     int64     `gorm:"column:owner_id;index"`
	Name        string    `gorm:"column:name"`
	Brand       string    `gorm:"column:brand"`
	PricePerDay float64   `gorm:"column:price_per_day"`
	LocationTag string    `gorm:"column:location_tag"`
	Status      string    `gorm:"column:status;index"`
	Available   bool      `gorm:"column:available"`
	Rating      float64   `gorm:"column:rating"`
	Reviews     int       `gorm:"column:reviews"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (carModel) TableName() string { return "cars" }

func toDomainCar(m carModel) *domain.Car {
	return &domain.Car{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Brand:       m.Brand,
		PricePerDay: m.PricePerDay,
		LocationTag: m.LocationTag,
		Status:      domain.CarStatus(m.Status),
		Available:   m.Available,
		Rating:      m.Rating,
		Reviews:     m.Reviews,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toCarModel(c *domain.Car) carModel {
	return carModel{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Name:        c.Name,
		Brand:       c.Brand,
		PricePerDay: c.PricePerDay,
		LocationTag: c.LocationTag,
		Status:      string(c.Status),
		Available:   c.Available,
		Rating:      c.Rating,
		Reviews:     c.Reviews,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (r *CarRepository) Create(ctx context.Context, c *domain.Car) error {
	m := toCarModel(c)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*c = *toDomainCar(m)
	return nil
}

func (r *CarRepository) Save(ctx context.Context, c *domain.Car) error {
	m := toCarModel(c)
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*c = *toDomainCar(m)
	return nil
}

func (r *CarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	var m carModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainCar(m), nil
}

func (r *CarRepository) List(ctx context.Context) ([]domain.Car, error) {
	var models []carModel
	tx := r.db.WithContext(ctx).Order("id ASC").Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Car, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainCar(m))
	}
	return out, nil
}

func (r *CarRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error) {
	var models []carModel
	tx := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Car, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainCar(m))
	}
	return out, nil
}

func (r *CarRepository) UpdateRating(ctx context.Context, carID int64, rating float64, reviews int) error {
	return r.db.WithContext(ctx).Model(&carModel{}).Where("id = ?", carID).Updates(map[string]any{
		"rating":  rating,
		"reviews": reviews,
	}).Error
}

func (r *CarRepository) UpdateAvailability(ctx context.Context, carID int64, available bool) error {
	return r.db.WithContext(ctx).Model(&carModel{}).Where("id = ?", carID).Update("available", available).Error
}

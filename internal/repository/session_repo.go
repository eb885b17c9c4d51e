package repository

import (
	"context"
	"time"

	"carrental/internal/domain"

	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	Role           string    `gorm:"column:role"`
	PrincipalID    int64     `gorm:"column:principal_id;index"`
	IssuedAt       time.Time `gorm:"column:issued_at"`
	ExpiresAt      time.Time `gorm:"column:expires_at;index"`
	LastActivityAt time.Time `gorm:"column:last_activity_at"`
	ExpiryWarned   bool      `gorm:"column:expiry_warned"`
}

func (sessionModel) TableName() string { return "sessions" }

func toDomainSession(m sessionModel) *domain.Session {
	return &domain.Session{
		ID:             m.ID,
		Role:           domain.Role(m.Role),
		PrincipalID:    m.PrincipalID,
		IssuedAt:       m.IssuedAt,
		ExpiresAt:      m.ExpiresAt,
		LastActivityAt: m.LastActivityAt,
		ExpiryWarned:   m.ExpiryWarned,
	}
}

func toSessionModel(s *domain.Session) sessionModel {
	return sessionModel{
		ID:             s.ID,
		Role:           string(s.Role),
		PrincipalID:    s.PrincipalID,
		IssuedAt:       s.IssuedAt,
		ExpiresAt:      s.ExpiresAt,
		LastActivityAt: s.LastActivityAt,
		ExpiryWarned:   s.ExpiryWarned,
	}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	m := toSessionModel(s)
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var m sessionModel
	tx := r.db.WithContext(ctx).Where("id = ?", id).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainSession(m), nil
}

// Update rewrites the whole session row; session mutation goes through a
// single writer per session id so last-writer-wins is acceptable here.
func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	m := toSessionModel(s)
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionModel{}).Error
}

// DeleteExpired removes sessions whose expiry is at or before now and
// returns how many rows were reclaimed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionModel{})
	return tx.RowsAffected, tx.Error
}

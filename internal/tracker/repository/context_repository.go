package repository

import (
	"errors"
	"time"

	"xpress-backend/internal/tracker/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type contextRepository struct {
	db *gorm.DB
}

func NewContextRepository(db *gorm.DB) ContextRepository {
	return &contextRepository{db: db}
}

func (r *contextRepository) FindByUser(userID string) (*domain.ReplyContext, error) {
	var rc domain.ReplyContext
	err := r.db.Where("user_id = ?", userID).First(&rc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rc, nil
}

func (r *contextRepository) Upsert(rc *domain.ReplyContext) error {
	existing, err := r.FindByUser(rc.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		rc.ID = uuid.New().String()
		rc.CreatedAt = time.Now()
		rc.UpdatedAt = time.Now()
		return r.db.Create(rc).Error
	}
	rc.ID = existing.ID
	rc.CreatedAt = existing.CreatedAt
	rc.UpdatedAt = time.Now()
	return r.db.Save(rc).Error
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"xpress-backend/internal/xauth/domain"
)

type CredentialRepository interface {
	Upsert(ctx context.Context, cred *domain.XCredential) (*domain.XCredential, error)
	FindActiveByUser(ctx context.Context, userID string) (*domain.XCredential, error)
	FindByUserAndXID(ctx context.Context, userID, xID string) (*domain.XCredential, error)
	ListByUser(ctx context.Context, userID string) ([]domain.XCredential, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
	Deactivate(ctx context.Context, userID, xID string) error
}

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// Upsert stores the credential, replacing tokens when the same X account was
// connected before (including a previously disconnected one).
func (r *credentialRepository) Upsert(ctx context.Context, cred *domain.XCredential) (*domain.XCredential, error) {
	existing, err := r.FindByUserAndXID(ctx, cred.UserID, cred.XID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Username = cred.Username
		existing.Name = cred.Name
		existing.ProfileImageURL = cred.ProfileImageURL
		existing.AccessToken = cred.AccessToken
		existing.RefreshToken = cred.RefreshToken
		existing.ExpiresAt = cred.ExpiresAt
		existing.Scope = cred.Scope
		existing.Active = true
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	cred.ID = uuid.New().String()
	cred.Active = true
	if err := r.db.WithContext(ctx).Create(cred).Error; err != nil {
		return nil, err
	}
	return cred, nil
}

func (r *credentialRepository) FindActiveByUser(ctx context.Context, userID string) (*domain.XCredential, error) {
	var cred domain.XCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("updated_at DESC").
		First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) FindByUserAndXID(ctx context.Context, userID, xID string) (*domain.XCredential, error) {
	var cred domain.XCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND x_id = ?", userID, xID).
		First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) ListByUser(ctx context.Context, userID string) ([]domain.XCredential, error) {
	var creds []domain.XCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("created_at ASC").
		Find(&creds).Error
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (r *credentialRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.XCredential{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
		}).Error
}

func (r *credentialRepository) Deactivate(ctx context.Context, userID, xID string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.XCredential{}).
		Where("user_id = ? AND x_id = ? AND active = ?", userID, xID, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotConnected
	}
	return nil
}

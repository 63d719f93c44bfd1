package repository

import (
	"errors"
	"time"

	"xpress-backend/internal/tracker/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// accountRepository implements AccountRepository using GORM
type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(account *domain.TrackedAccount) error {
	account.Handle = domain.NormalizeHandle(account.Handle)

	existing, err := r.FindByHandle(account.UserID, account.Handle)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrDuplicateTracking
	}

	account.ID = uuid.New().String()
	account.Active = true
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	if account.Keywords == nil {
		account.Keywords = domain.KeywordList{}
	}
	if err := r.db.Create(account).Error; err != nil {
		// The unique index backs up the pre-check under concurrent tracks.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateTracking
		}
		return err
	}
	return nil
}

func (r *accountRepository) FindByHandle(userID, handle string) (*domain.TrackedAccount, error) {
	var account domain.TrackedAccount
	err := r.db.Where("user_id = ? AND handle = ?", userID, domain.NormalizeHandle(handle)).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) ListByUser(userID string) ([]*domain.TrackedAccount, error) {
	var accounts []*domain.TrackedAccount
	err := r.db.Where("user_id = ? AND active = ?", userID, true).
		Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) Update(account *domain.TrackedAccount) error {
	account.UpdatedAt = time.Now()
	return r.db.Save(account).Error
}

// Deactivate untracks a handle without deleting it; the posts already fetched
// for it stay in place.
func (r *accountRepository) Deactivate(userID, handle string) error {
	res := r.db.Model(&domain.TrackedAccount{}).
		Where("user_id = ? AND handle = ?", userID, domain.NormalizeHandle(handle)).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

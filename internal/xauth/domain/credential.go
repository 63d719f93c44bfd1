package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotConnected means the user has no active delegated X account.
	ErrNotConnected = errors.New("no connected x account")
	// ErrRefreshFailed means the stored refresh token could not be exchanged;
	// the user has to reconnect.
	ErrRefreshFailed = errors.New("token refresh failed, please reconnect the account")
	// ErrTooLong rejects reply text over the platform limit before any
	// network call is made.
	ErrTooLong = errors.New("text exceeds the 280 character limit")
)

// MaxPostLength is the X platform's post length limit, enforced client-side.
const MaxPostLength = 280

// XCredential is a user's delegated X token set. A user may connect several
// X accounts; each is connected at most once.
type XCredential struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	UserID          string    `json:"user_id" gorm:"uniqueIndex:idx_user_xid;index;not null"`
	XID             string    `json:"x_id" gorm:"uniqueIndex:idx_user_xid;not null"`
	Username        string    `json:"username"`
	Name            string    `json:"name"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	AccessToken     string    `json:"-" gorm:"not null"`
	RefreshToken    string    `json:"-" gorm:"not null"`
	ExpiresAt       time.Time `json:"expires_at"`
	Scope           string    `json:"scope"`
	Active          bool      `json:"active" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

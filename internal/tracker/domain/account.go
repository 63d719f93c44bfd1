package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// TrackedAccount is an X account a user follows for reply opportunities.
// The same handle may be tracked by different users, but only once per user.
type TrackedAccount struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	Handle      string         `json:"handle" gorm:"uniqueIndex:idx_handle_user;not null"`
	XID         string         `json:"x_id" gorm:"not null"`
	UserID      string         `json:"user_id" gorm:"uniqueIndex:idx_handle_user;index;not null"`
	DisplayName string         `json:"display_name,omitempty"`
	Keywords    KeywordList    `json:"keywords" gorm:"type:text"`
	CallCount   int            `json:"call_count" gorm:"default:0"`
	LastChecked *time.Time     `json:"last_checked,omitempty"`
	LastAPICall *time.Time     `json:"last_api_call,omitempty"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// NormalizeHandle lowercases and strips a leading @ so (handle, user) lookups
// are case-insensitive.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

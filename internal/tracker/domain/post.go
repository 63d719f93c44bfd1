package domain

import "time"

// ReplyState describes where a post's reply sits in its lifecycle.
type ReplyState string

const (
	ReplyStateEmpty   ReplyState = "empty"
	ReplyStateDrafted ReplyState = "drafted"
	ReplyStateQueued  ReplyState = "queued"
	ReplyStateSent    ReplyState = "sent"
)

// Reply is embedded in Post: a post carries at most one reply, so the
// one-active-reply rule holds structurally instead of by query.
type Reply struct {
	Text        string     `json:"text,omitempty"`
	GeneratedBy string     `json:"generated_by,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	QueuedAt    *time.Time `json:"queued_at,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	InQueue     bool       `json:"in_queue"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  string     `json:"approved_by,omitempty"`
	Tone        string     `json:"tone,omitempty"`
	EditContext string     `json:"edit_context,omitempty"`
	XPostID     string     `json:"x_post_id,omitempty"`
	XPostedAt   *time.Time `json:"x_posted_at,omitempty"`
}

// State derives the lifecycle position from the durable fields. Only
// queued/sent/draft are persisted; "suggested" text lives as a draft.
func (r *Reply) State() ReplyState {
	switch {
	case r == nil || r.Text == "":
		return ReplyStateEmpty
	case r.SentAt != nil:
		return ReplyStateSent
	case r.InQueue:
		return ReplyStateQueued
	default:
		return ReplyStateDrafted
	}
}

// Post is a fetched X post from a tracked account, unique per
// (external post id, tracking user).
type Post struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	PostID         string    `json:"post_id" gorm:"uniqueIndex:idx_post_user;not null"`
	TrackedBy      string    `json:"tracked_by" gorm:"uniqueIndex:idx_post_user;index;not null"`
	AccountID      string    `json:"account_id" gorm:"index"`
	AuthorUsername string    `json:"author_username"`
	Text           string    `json:"text"`
	PostedAt       time.Time `json:"posted_at"`
	LikeCount      int       `json:"like_count" gorm:"default:0"`
	RepostCount    int       `json:"repost_count" gorm:"default:0"`
	ReplyCount     int       `json:"reply_count" gorm:"default:0"`
	Reply          Reply     `json:"reply" gorm:"embedded;embeddedPrefix:reply_"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NormalizedPost is the canonical shape produced by the fetch layer before
// persistence, independent of whatever envelope the upstream API used.
type NormalizedPost struct {
	PostID         string
	AuthorID       string
	AuthorUsername string
	Text           string
	PostedAt       time.Time
	LikeCount      int
	RepostCount    int
	ReplyCount     int
}

// ReplyContext holds a user's default AI generation preferences.
type ReplyContext struct {
	ID             string      `json:"id" gorm:"primaryKey"`
	UserID         string      `json:"user_id" gorm:"uniqueIndex;not null"`
	Tone           string      `json:"tone" gorm:"default:professional"`
	Keywords       KeywordList `json:"keywords" gorm:"type:text"`
	GeneralContext string      `json:"general_context,omitempty"`
	AutoApprove    bool        `json:"auto_approve" gorm:"default:false"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

package dto

import "xpress-backend/internal/tracker/domain"

type TrackRequest struct {
	Handle   string   `json:"handle" binding:"required"`
	Keywords []string `json:"keywords"`
}

type TrackResult struct {
	Account *domain.TrackedAccount `json:"account"`
	Posts   []*domain.Post         `json:"posts"`
}

// AccountWithPosts pairs a tracked account with its observed posts,
// freshest first.
type AccountWithPosts struct {
	Account *domain.TrackedAccount `json:"account"`
	Posts   []*domain.Post         `json:"posts"`
}

// RateLimitInfo tells the caller whether the view was throttled and how long
// until the next call is allowed.
type RateLimitInfo struct {
	Active           bool `json:"active"`
	MinutesRemaining int  `json:"minutes_remaining,omitempty"`
}

// AccountsView is the refresh flow's result: fresh or cached, never an error
// for fetch trouble alone.
type AccountsView struct {
	Accounts   []AccountWithPosts `json:"accounts"`
	FromCache  bool               `json:"from_cache"`
	CacheCause string             `json:"cache_cause,omitempty"`
	RateLimit  RateLimitInfo      `json:"rate_limit"`
}

type SuggestRequest struct {
	Tone    string `json:"tone"`
	Context string `json:"context"`
	Force   bool   `json:"force"`
}

type DraftRequest struct {
	Text string `json:"text" binding:"required"`
}

type ApproveRequest struct {
	Text string `json:"text"`
	Tone string `json:"tone"`
}

type ContextRequest struct {
	Tone           string   `json:"tone"`
	Keywords       []string `json:"keywords"`
	GeneralContext string   `json:"general_context"`
	AutoApprove    bool     `json:"auto_approve"`
}

type TestReplyRequest struct {
	Text    string `json:"text" binding:"required"`
	Context string `json:"context"`
}

// DispatchResult is one queued item's outcome in a bulk send.
type DispatchResult struct {
	PostID  string `json:"post_id"`
	Success bool   `json:"success"`
	XPostID string `json:"x_post_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

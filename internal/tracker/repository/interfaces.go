package repository

import "xpress-backend/internal/tracker/domain"

// AccountRepository persists tracked accounts, unique per (handle, user).
type AccountRepository interface {
	Create(account *domain.TrackedAccount) error
	FindByHandle(userID, handle string) (*domain.TrackedAccount, error)
	ListByUser(userID string) ([]*domain.TrackedAccount, error)
	Update(account *domain.TrackedAccount) error
	Deactivate(userID, handle string) error
}

// PostRepository persists posts, unique per (external post id, tracking user),
// each carrying its embedded reply.
type PostRepository interface {
	UpsertPosts(account *domain.TrackedAccount, posts []domain.NormalizedPost) ([]*domain.Post, error)
	FindByPostID(userID, postID string) (*domain.Post, error)
	ListByUser(userID string) ([]*domain.Post, error)
	ListQueued(userID string) ([]*domain.Post, error)
	Save(post *domain.Post) error
}

// ContextRepository persists per-user AI generation preferences.
type ContextRepository interface {
	FindByUser(userID string) (*domain.ReplyContext, error)
	Upsert(rc *domain.ReplyContext) error
}

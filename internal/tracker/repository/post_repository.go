package repository

import (
	"errors"
	"log"
	"time"

	"xpress-backend/internal/tracker/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postRepository implements PostRepository using GORM
type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// UpsertPosts stores each fetched post by (post_id, tracked_by), refreshing
// text, metrics and timestamps on conflict: remote content and engagement
// counts change between fetches, so latest wins. Reply columns are never
// touched by the upsert. A single failed post is logged and skipped; the
// batch continues and only succeeded rows are returned.
func (r *postRepository) UpsertPosts(account *domain.TrackedAccount, posts []domain.NormalizedPost) ([]*domain.Post, error) {
	stored := make([]*domain.Post, 0, len(posts))
	for _, np := range posts {
		username := np.AuthorUsername
		if username == "" {
			username = account.Handle
		}
		post := domain.Post{
			ID:             uuid.New().String(),
			PostID:         np.PostID,
			TrackedBy:      account.UserID,
			AccountID:      account.ID,
			AuthorUsername: username,
			Text:           np.Text,
			PostedAt:       np.PostedAt,
			LikeCount:      np.LikeCount,
			RepostCount:    np.RepostCount,
			ReplyCount:     np.ReplyCount,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		err := r.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "post_id"}, {Name: "tracked_by"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"text", "like_count", "repost_count", "reply_count",
				"posted_at", "author_username", "updated_at",
			}),
		}).Create(&post).Error
		if err != nil {
			log.Printf("[WARN] upsert post %s for user %s: %v", np.PostID, account.UserID, err)
			continue
		}

		// Re-read so the caller sees the stored row, reply included.
		current, err := r.FindByPostID(account.UserID, np.PostID)
		if err != nil || current == nil {
			log.Printf("[WARN] reload post %s for user %s: %v", np.PostID, account.UserID, err)
			continue
		}
		stored = append(stored, current)
	}
	return stored, nil
}

func (r *postRepository) FindByPostID(userID, postID string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.Where("tracked_by = ? AND post_id = ?", userID, postID).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListByUser(userID string) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := r.db.Where("tracked_by = ?", userID).
		Order("posted_at DESC").Find(&posts).Error
	return posts, err
}

// ListQueued returns replies eligible for dispatch, oldest queued first.
func (r *postRepository) ListQueued(userID string) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := r.db.Where("tracked_by = ? AND reply_in_queue = ? AND reply_sent_at IS NULL", userID, true).
		Order("reply_queued_at ASC").Find(&posts).Error
	return posts, err
}

func (r *postRepository) Save(post *domain.Post) error {
	post.UpdatedAt = time.Now()
	return r.db.Save(post).Error
}

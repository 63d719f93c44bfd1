package usecase

import (
	"context"
	"log"

	"xpress-backend/internal/quota"
	"xpress-backend/internal/tracker/domain"
	"xpress-backend/internal/tracker/dto"
	"xpress-backend/internal/tracker/repository"
)

// Publisher sends a reply through the app's credentials or, when asUserID is
// set, through that user's connected X account.
type Publisher interface {
	Publish(ctx context.Context, text, inReplyToID, asUserID string) (string, error)
}

// DispatchUsecase drains a user's reply queue.
type DispatchUsecase interface {
	DispatchAll(ctx context.Context, userID string) ([]dto.DispatchResult, error)
}

type dispatchUsecase struct {
	postRepo  repository.PostRepository
	replies   ReplyUsecase
	publisher Publisher
	gate      *quota.Gate
}

func NewDispatchUsecase(postRepo repository.PostRepository, replies ReplyUsecase, publisher Publisher, gate *quota.Gate) DispatchUsecase {
	return &dispatchUsecase{
		postRepo:  postRepo,
		replies:   replies,
		publisher: publisher,
		gate:      gate,
	}
}

// DispatchAll sends the queue oldest-first, one item at a time; the quota is
// shared per user, so there is nothing to gain from parallel sends. A publish
// failure is recorded per item and the batch continues; a closed quota gate
// stops the batch, since every remaining item would hit the same throttle.
// An error is returned only when the queue itself cannot be loaded.
func (u *dispatchUsecase) DispatchAll(ctx context.Context, userID string) ([]dto.DispatchResult, error) {
	queued, err := u.postRepo.ListQueued(userID)
	if err != nil {
		return nil, err
	}

	results := make([]dto.DispatchResult, 0, len(queued))
	for _, post := range queued {
		if !u.gate.CanCall(userID) {
			rl := &domain.RateLimitedError{Minutes: u.gate.MinutesUntilNextCall(userID)}
			results = append(results, dto.DispatchResult{
				PostID:  post.PostID,
				Success: false,
				Error:   rl.Error(),
			})
			break
		}

		xPostID, err := u.publisher.Publish(ctx, post.Reply.Text, post.PostID, userID)
		// Success or not, the attempt consumed quota.
		u.gate.RecordCall(userID)

		if err != nil {
			log.Printf("[WARN] dispatch post %s for user %s: %v", post.PostID, userID, err)
			results = append(results, dto.DispatchResult{
				PostID:  post.PostID,
				Success: false,
				Error:   err.Error(),
			})
			continue
		}

		if _, err := u.replies.MarkSent(userID, post.PostID, xPostID); err != nil {
			// Published but not recorded locally; surface it on the item so
			// the operator can reconcile instead of re-sending blindly.
			log.Printf("[ERROR] mark sent post %s for user %s: %v", post.PostID, userID, err)
			results = append(results, dto.DispatchResult{
				PostID:  post.PostID,
				Success: false,
				XPostID: xPostID,
				Error:   "published but failed to record: " + err.Error(),
			})
			continue
		}

		results = append(results, dto.DispatchResult{
			PostID:  post.PostID,
			Success: true,
			XPostID: xPostID,
		})
	}
	return results, nil
}

package usecase

import (
	"time"

	"xpress-backend/internal/tracker/domain"
	"xpress-backend/internal/tracker/repository"
)

// ReplyUsecase owns the reply lifecycle attached to each post:
// drafted → queued → sent, with unapprove stepping back to drafted.
type ReplyUsecase interface {
	StoreDraft(userID, postID, generatedBy, text string, force bool) (*domain.Post, error)
	Approve(userID, postID, approverID string, overrides domain.Reply) (*domain.Post, error)
	Unapprove(userID, postID string) (*domain.Post, error)
	Edit(userID, postID, newText string) (*domain.Post, error)
	MarkSent(userID, postID, xPostID string) (*domain.Post, error)
	ListQueue(userID string) ([]*domain.Post, error)
}

type replyUsecase struct {
	postRepo repository.PostRepository
	now      func() time.Time
}

func NewReplyUsecase(postRepo repository.PostRepository) ReplyUsecase {
	return &replyUsecase{postRepo: postRepo, now: time.Now}
}

func (u *replyUsecase) load(userID, postID string) (*domain.Post, error) {
	post, err := u.postRepo.FindByPostID(userID, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, domain.ErrNotFound
	}
	return post, nil
}

// StoreDraft saves generated text as the post's draft. An existing draft is
// only overwritten when force is set, so a late AI regeneration cannot
// clobber a user's edit.
func (u *replyUsecase) StoreDraft(userID, postID, generatedBy, text string, force bool) (*domain.Post, error) {
	post, err := u.load(userID, postID)
	if err != nil {
		return nil, err
	}

	if post.Reply.State() == domain.ReplyStateSent {
		return nil, domain.ErrAlreadySent
	}
	if post.Reply.Text != "" && !force {
		return post, nil
	}

	now := u.now()
	post.Reply.Text = text
	post.Reply.GeneratedBy = generatedBy
	if post.Reply.GeneratedAt == nil {
		post.Reply.GeneratedAt = &now
	}
	post.Reply.UpdatedAt = &now
	if err := u.postRepo.Save(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Approve queues the reply for dispatch. When no draft exists the supplied
// text becomes the draft in the same step. Approving an already-queued post
// is a no-op returning the current state, which absorbs double clicks.
func (u *replyUsecase) Approve(userID, postID, approverID string, overrides domain.Reply) (*domain.Post, error) {
	post, err := u.load(userID, postID)
	if err != nil {
		return nil, err
	}

	switch post.Reply.State() {
	case domain.ReplyStateSent:
		return nil, domain.ErrAlreadySent
	case domain.ReplyStateQueued:
		return post, nil
	}

	now := u.now()
	if overrides.Text != "" {
		post.Reply.Text = overrides.Text
		post.Reply.UpdatedAt = &now
	}
	if post.Reply.Text == "" {
		return nil, domain.ErrEmptyReply
	}
	if overrides.Tone != "" {
		post.Reply.Tone = overrides.Tone
	}
	if post.Reply.GeneratedAt == nil {
		post.Reply.GeneratedAt = &now
	}
	if post.Reply.GeneratedBy == "" {
		post.Reply.GeneratedBy = approverID
	}
	post.Reply.InQueue = true
	post.Reply.QueuedAt = &now
	post.Reply.ApprovedAt = &now
	post.Reply.ApprovedBy = approverID
	if err := u.postRepo.Save(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Unapprove takes a queued reply out of the queue but keeps its text, so the
// suggestion is not lost.
func (u *replyUsecase) Unapprove(userID, postID string) (*domain.Post, error) {
	post, err := u.load(userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Reply.State() != domain.ReplyStateQueued {
		return nil, domain.ErrNotQueued
	}

	post.Reply.InQueue = false
	post.Reply.QueuedAt = nil
	post.Reply.ApprovedAt = nil
	post.Reply.ApprovedBy = ""
	if err := u.postRepo.Save(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (u *replyUsecase) Edit(userID, postID, newText string) (*domain.Post, error) {
	post, err := u.load(userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Reply.State() == domain.ReplyStateSent {
		return nil, domain.ErrAlreadySent
	}

	now := u.now()
	post.Reply.Text = newText
	post.Reply.UpdatedAt = &now
	if post.Reply.GeneratedAt == nil {
		post.Reply.GeneratedAt = &now
	}
	if err := u.postRepo.Save(post); err != nil {
		return nil, err
	}
	return post, nil
}

// MarkSent records the published post id and closes the lifecycle. The bulk
// dispatcher is the only normal caller; the queued check guards out-of-order
// calls anyway.
func (u *replyUsecase) MarkSent(userID, postID, xPostID string) (*domain.Post, error) {
	post, err := u.load(userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Reply.State() != domain.ReplyStateQueued {
		return nil, domain.ErrNotQueued
	}

	now := u.now()
	post.Reply.SentAt = &now
	post.Reply.InQueue = false
	post.Reply.XPostID = xPostID
	post.Reply.XPostedAt = &now
	if err := u.postRepo.Save(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (u *replyUsecase) ListQueue(userID string) ([]*domain.Post, error) {
	return u.postRepo.ListQueued(userID)
}

package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"xpress-backend/internal/tracker/domain"
	"xpress-backend/internal/tracker/dto"
	"xpress-backend/internal/tracker/repository"
	"xpress-backend/pkg/ai"
)

// TrackerUsecase covers tracking accounts, the refresh-or-cached view and AI
// draft generation.
type TrackerUsecase interface {
	Track(ctx context.Context, userID, handle string, keywords []string) (*dto.TrackResult, error)
	Untrack(userID, handle string) error
	GetRefreshedOrCachedView(ctx context.Context, userID string) (*dto.AccountsView, error)
	Suggest(ctx context.Context, userID, postID string, req dto.SuggestRequest) (*domain.Post, error)
	TestReply(ctx context.Context, userID, text, contextHint string) (string, error)
	GetContext(userID string) (*domain.ReplyContext, error)
	SaveContext(userID string, req dto.ContextRequest) (*domain.ReplyContext, error)
}

type trackerUsecase struct {
	accountRepo repository.AccountRepository
	postRepo    repository.PostRepository
	contextRepo repository.ContextRepository
	fetcher     *Fetcher
	replies     ReplyUsecase
	aiService   ai.ReplyService
	fetchLimit  int
	windowHours int
}

func NewTrackerUsecase(
	accountRepo repository.AccountRepository,
	postRepo repository.PostRepository,
	contextRepo repository.ContextRepository,
	fetcher *Fetcher,
	replies ReplyUsecase,
	aiService ai.ReplyService,
	fetchLimit int,
) TrackerUsecase {
	if fetchLimit <= 0 {
		fetchLimit = 5
	}
	return &trackerUsecase{
		accountRepo: accountRepo,
		postRepo:    postRepo,
		contextRepo: contextRepo,
		fetcher:     fetcher,
		replies:     replies,
		aiService:   aiService,
		fetchLimit:  fetchLimit,
		windowHours: 6,
	}
}

// Track resolves a new handle and stores it with its latest posts. A handle
// already tracked by this user fails with ErrDuplicateTracking before any
// quota is spent.
func (u *trackerUsecase) Track(ctx context.Context, userID, handle string, keywords []string) (*dto.TrackResult, error) {
	handle = domain.NormalizeHandle(handle)

	existing, err := u.accountRepo.FindByHandle(userID, handle)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Active {
			return nil, domain.ErrDuplicateTracking
		}
		// Re-tracking a previously untracked handle reactivates it.
		existing.Active = true
		existing.Keywords = domain.KeywordList(keywords)
		if err := u.accountRepo.Update(existing); err != nil {
			return nil, err
		}
		posts, err := u.postRepo.ListByUser(userID)
		if err != nil {
			return nil, err
		}
		return &dto.TrackResult{Account: existing, Posts: postsForHandle(posts, handle)}, nil
	}

	resolved, fetched, fetchErr := u.fetcher.ResolveAndFetch(ctx, userID, handle, u.fetchLimit)
	if resolved == nil {
		return nil, fetchErr
	}

	now := time.Now()
	account := &domain.TrackedAccount{
		Handle:      resolved.Handle,
		XID:         resolved.XID,
		UserID:      userID,
		DisplayName: resolved.Name,
		Keywords:    domain.KeywordList(keywords),
		CallCount:   1,
		LastChecked: &now,
		LastAPICall: &now,
	}
	if err := u.accountRepo.Create(account); err != nil {
		return nil, err
	}

	// The initial posts ride the same billed call as the resolve. A fetch
	// failure is not fatal: the account is tracked, posts arrive on the next
	// refresh.
	var stored []*domain.Post
	if fetchErr != nil {
		log.Printf("[WARN] initial fetch for @%s (user %s): %v", account.Handle, userID, fetchErr)
	} else {
		stored, fetchErr = u.postRepo.UpsertPosts(account, fetched)
		if fetchErr != nil {
			log.Printf("[WARN] store initial posts for @%s (user %s): %v", account.Handle, userID, fetchErr)
		}
	}

	return &dto.TrackResult{Account: account, Posts: stored}, nil
}

func (u *trackerUsecase) Untrack(userID, handle string) error {
	return u.accountRepo.Deactivate(userID, handle)
}

// GetRefreshedOrCachedView is the refresh entry point. Throttled requests and
// failed fetches both degrade to the cached view instead of erroring; the
// result says which happened.
func (u *trackerUsecase) GetRefreshedOrCachedView(ctx context.Context, userID string) (*dto.AccountsView, error) {
	accounts, err := u.accountRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return &dto.AccountsView{Accounts: []dto.AccountWithPosts{}}, nil
	}

	handles := make([]string, len(accounts))
	for i, a := range accounts {
		handles[i] = a.Handle
	}

	fetched, err := u.fetcher.FetchPostsForMany(ctx, userID, handles, u.windowHours)
	if err != nil {
		if rl, ok := err.(*domain.RateLimitedError); ok {
			view, cacheErr := u.cachedView(accounts, userID)
			if cacheErr != nil {
				return nil, cacheErr
			}
			view.FromCache = true
			view.CacheCause = rl.Error()
			view.RateLimit = dto.RateLimitInfo{Active: true, MinutesRemaining: rl.Minutes}
			return view, nil
		}

		log.Printf("[WARN] refresh fetch for user %s: %v", userID, err)
		view, cacheErr := u.cachedView(accounts, userID)
		if cacheErr != nil {
			return nil, cacheErr
		}
		view.FromCache = true
		view.CacheCause = fmt.Sprintf("fetch failed: %v", err)
		return view, nil
	}

	now := time.Now()
	for _, account := range accounts {
		posts := fetched[account.Handle]
		if len(posts) > 0 {
			if _, err := u.postRepo.UpsertPosts(account, posts); err != nil {
				log.Printf("[WARN] upsert posts for @%s (user %s): %v", account.Handle, userID, err)
			}
		}
		account.LastChecked = &now
		account.LastAPICall = &now
		account.CallCount++
		if err := u.accountRepo.Update(account); err != nil {
			log.Printf("[WARN] update account @%s after refresh: %v", account.Handle, err)
		}
	}

	return u.cachedView(accounts, userID)
}

// cachedView assembles accounts with their stored posts, freshest first,
// de-duplicated by post id.
func (u *trackerUsecase) cachedView(accounts []*domain.TrackedAccount, userID string) (*dto.AccountsView, error) {
	posts, err := u.postRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	view := &dto.AccountsView{Accounts: make([]dto.AccountWithPosts, 0, len(accounts))}
	for _, account := range accounts {
		view.Accounts = append(view.Accounts, dto.AccountWithPosts{
			Account: account,
			Posts:   postsForHandle(posts, account.Handle),
		})
	}
	return view, nil
}

func postsForHandle(posts []*domain.Post, handle string) []*domain.Post {
	out := make([]*domain.Post, 0)
	seen := make(map[string]bool)
	for _, p := range posts {
		if !strings.EqualFold(p.AuthorUsername, handle) || seen[p.PostID] {
			continue
		}
		seen[p.PostID] = true
		out = append(out, p)
	}
	return out
}

// Suggest generates an AI draft for the post and stores it. Unless forced, an
// existing draft wins over the fresh generation.
func (u *trackerUsecase) Suggest(ctx context.Context, userID, postID string, req dto.SuggestRequest) (*domain.Post, error) {
	post, err := u.postRepo.FindByPostID(userID, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, domain.ErrNotFound
	}
	if post.Reply.State() == domain.ReplyStateSent {
		return nil, domain.ErrAlreadySent
	}

	if u.aiService == nil {
		return nil, fmt.Errorf("%w: no AI provider configured", ai.ErrGenerationFailed)
	}
	hint := u.buildContextHint(userID, req.Tone, req.Context)
	text, err := u.aiService.GenerateReply(ctx, post.Text, hint)
	if err != nil {
		return nil, err
	}

	updated, err := u.replies.StoreDraft(userID, postID, userID, text, req.Force)
	if err != nil {
		return nil, err
	}
	if req.Tone != "" && updated.Reply.Tone != req.Tone {
		updated.Reply.Tone = req.Tone
		updated.Reply.EditContext = req.Context
		if err := u.postRepo.Save(updated); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// TestReply exercises the AI service directly, without a stored post.
func (u *trackerUsecase) TestReply(ctx context.Context, userID, text, contextHint string) (string, error) {
	if u.aiService == nil {
		return "", fmt.Errorf("%w: no AI provider configured", ai.ErrGenerationFailed)
	}
	if contextHint == "" {
		contextHint = u.buildContextHint(userID, "", "")
	}
	return u.aiService.GenerateReply(ctx, text, contextHint)
}

// buildContextHint merges the request's tone/context with the user's stored
// generation preferences.
func (u *trackerUsecase) buildContextHint(userID, tone, extra string) string {
	parts := []string{}
	rc, err := u.contextRepo.FindByUser(userID)
	if err != nil {
		log.Printf("[WARN] load reply context for user %s: %v", userID, err)
	}
	if tone == "" && rc != nil {
		tone = rc.Tone
	}
	if tone != "" {
		parts = append(parts, "Tone: "+tone)
	}
	if rc != nil && rc.GeneralContext != "" {
		parts = append(parts, rc.GeneralContext)
	}
	if extra != "" {
		parts = append(parts, extra)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ")
}

func (u *trackerUsecase) GetContext(userID string) (*domain.ReplyContext, error) {
	rc, err := u.contextRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		rc = &domain.ReplyContext{UserID: userID, Tone: "professional", Keywords: domain.KeywordList{}}
	}
	return rc, nil
}

func (u *trackerUsecase) SaveContext(userID string, req dto.ContextRequest) (*domain.ReplyContext, error) {
	rc := &domain.ReplyContext{
		UserID:         userID,
		Tone:           req.Tone,
		Keywords:       domain.KeywordList(req.Keywords),
		GeneralContext: req.GeneralContext,
		AutoApprove:    req.AutoApprove,
	}
	if rc.Tone == "" {
		rc.Tone = "professional"
	}
	if err := u.contextRepo.Upsert(rc); err != nil {
		return nil, err
	}
	return rc, nil
}

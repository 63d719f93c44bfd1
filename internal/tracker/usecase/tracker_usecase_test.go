package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"xpress-backend/internal/quota"
	"xpress-backend/internal/tracker/domain"
	"xpress-backend/internal/tracker/dto"
	"xpress-backend/pkg/xapi"
)

type fakeAccountRepo struct {
	accounts map[string]*domain.TrackedAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.TrackedAccount)}
}

func accountKey(userID, handle string) string { return userID + "/" + handle }

func (r *fakeAccountRepo) Create(account *domain.TrackedAccount) error {
	key := accountKey(account.UserID, account.Handle)
	if existing, ok := r.accounts[key]; ok && existing.Active {
		return domain.ErrDuplicateTracking
	}
	if account.ID == "" {
		account.ID = "acc-" + account.Handle
	}
	account.Active = true
	cp := *account
	r.accounts[key] = &cp
	return nil
}

func (r *fakeAccountRepo) FindByHandle(userID, handle string) (*domain.TrackedAccount, error) {
	a, ok := r.accounts[accountKey(userID, handle)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) ListByUser(userID string) ([]*domain.TrackedAccount, error) {
	var out []*domain.TrackedAccount
	for _, a := range r.accounts {
		if a.UserID == userID && a.Active {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Update(account *domain.TrackedAccount) error {
	cp := *account
	r.accounts[accountKey(account.UserID, account.Handle)] = &cp
	return nil
}

func (r *fakeAccountRepo) Deactivate(userID, handle string) error {
	a, ok := r.accounts[accountKey(userID, handle)]
	if !ok || !a.Active {
		return domain.ErrNotFound
	}
	a.Active = false
	return nil
}

type fakeContextRepo struct {
	contexts map[string]*domain.ReplyContext
}

func newFakeContextRepo() *fakeContextRepo {
	return &fakeContextRepo{contexts: make(map[string]*domain.ReplyContext)}
}

func (r *fakeContextRepo) FindByUser(userID string) (*domain.ReplyContext, error) {
	rc, ok := r.contexts[userID]
	if !ok {
		return nil, nil
	}
	cp := *rc
	return &cp, nil
}

func (r *fakeContextRepo) Upsert(rc *domain.ReplyContext) error {
	cp := *rc
	r.contexts[rc.UserID] = &cp
	return nil
}

// fakeXClient serves canned responses and counts calls.
type fakeXClient struct {
	accounts    map[string]*xapi.Account
	searchMap   map[string][]domain.NormalizedPost
	searchErr   error
	resolveHits int
	searchHits  int
}

func (c *fakeXClient) ResolveAccount(_ context.Context, handle string) (*xapi.Account, error) {
	c.resolveHits++
	a, ok := c.accounts[handle]
	if !ok {
		return nil, xapi.ErrNotFound
	}
	return a, nil
}

func (c *fakeXClient) FetchRecentPosts(_ context.Context, xid string, _ int) ([]domain.NormalizedPost, error) {
	for h, a := range c.accounts {
		if a.XID == xid {
			return c.searchMap[h], nil
		}
	}
	return nil, xapi.ErrNotFound
}

func (c *fakeXClient) SearchPostsByAuthors(_ context.Context, handles []string, _ int) (map[string][]domain.NormalizedPost, error) {
	c.searchHits++
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	out := make(map[string][]domain.NormalizedPost, len(handles))
	for _, h := range handles {
		out[h] = c.searchMap[h]
		if out[h] == nil {
			out[h] = []domain.NormalizedPost{}
		}
	}
	return out, nil
}

func (c *fakeXClient) PostReply(context.Context, string, string) (string, error) {
	return "x-post", nil
}

func (c *fakeXClient) Me(context.Context) (*xapi.Account, error) {
	return &xapi.Account{XID: "me", Handle: "me"}, nil
}

type fakeAI struct {
	reply string
	err   error
}

func (a *fakeAI) GenerateReply(context.Context, string, string) (string, error) {
	return a.reply, a.err
}

func newTestTracker(client xapi.Client, store quota.Store) (TrackerUsecase, *fakeAccountRepo, *fakePostRepo) {
	accountRepo := newFakeAccountRepo()
	postRepo := newFakePostRepo()
	fetcher := NewFetcher(client, quota.NewGate(store, 15))
	replies := NewReplyUsecase(postRepo)
	uc := NewTrackerUsecase(accountRepo, postRepo, newFakeContextRepo(), fetcher, replies, &fakeAI{reply: "generated"}, 5)
	return uc, accountRepo, postRepo
}

func TestTrackResolvesAndStoresInitialPosts(t *testing.T) {
	client := &fakeXClient{
		accounts: map[string]*xapi.Account{
			"alice": {XID: "100", Name: "Alice", Handle: "alice"},
		},
		searchMap: map[string][]domain.NormalizedPost{
			"alice": {{PostID: "p1", AuthorUsername: "alice", Text: "hello", PostedAt: time.Now()}},
			"bob":   {{PostID: "p2", AuthorUsername: "bob", Text: "hey", PostedAt: time.Now()}},
		},
	}
	uc, _, _ := newTestTracker(client, quota.NewMemoryStore())

	result, err := uc.Track(context.Background(), "u1", "@Alice", nil)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if result.Account.Handle != "alice" || result.Account.XID != "100" {
		t.Errorf("account = %+v", result.Account)
	}
	// The resolve and the initial fetch share one quota slot, so the posts
	// land even though the store records every call.
	if len(result.Posts) != 1 || result.Posts[0].PostID != "p1" {
		t.Errorf("initial posts = %+v", result.Posts)
	}
	if result.Account.CallCount != 1 {
		t.Errorf("call count = %d, want 1", result.Account.CallCount)
	}

	// That slot is spent: tracking another handle right away is throttled.
	client.accounts["bob"] = &xapi.Account{XID: "200", Handle: "bob"}
	_, err = uc.Track(context.Background(), "u1", "bob", nil)
	var rl *domain.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("second track err = %v, want RateLimitedError", err)
	}
}

func TestTrackDuplicateFailsBeforeResolving(t *testing.T) {
	client := &fakeXClient{
		accounts: map[string]*xapi.Account{
			"alice": {XID: "100", Handle: "alice"},
		},
	}
	uc, _, _ := newTestTracker(client, openStore{})

	if _, err := uc.Track(context.Background(), "u1", "alice", nil); err != nil {
		t.Fatalf("first Track: %v", err)
	}
	resolveHits := client.resolveHits

	_, err := uc.Track(context.Background(), "u1", "alice", nil)
	if !errors.Is(err, domain.ErrDuplicateTracking) {
		t.Fatalf("err = %v, want ErrDuplicateTracking", err)
	}
	if client.resolveHits != resolveHits {
		t.Error("duplicate track spent quota on a resolve call")
	}
}

func TestTrackReactivatesUntrackedHandle(t *testing.T) {
	client := &fakeXClient{
		accounts: map[string]*xapi.Account{
			"alice": {XID: "100", Handle: "alice"},
		},
	}
	uc, accountRepo, _ := newTestTracker(client, openStore{})

	if _, err := uc.Track(context.Background(), "u1", "alice", nil); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := uc.Untrack("u1", "alice"); err != nil {
		t.Fatalf("Untrack: %v", err)
	}
	if accounts, _ := accountRepo.ListByUser("u1"); len(accounts) != 0 {
		t.Fatal("untracked account still listed")
	}

	result, err := uc.Track(context.Background(), "u1", "alice", []string{"go"})
	if err != nil {
		t.Fatalf("re-Track: %v", err)
	}
	if !result.Account.Active {
		t.Error("re-tracked account not active")
	}
	if accounts, _ := accountRepo.ListByUser("u1"); len(accounts) != 1 {
		t.Error("re-tracked account not listed")
	}
}

func TestRefreshedViewReturnsFreshData(t *testing.T) {
	client := &fakeXClient{
		accounts: map[string]*xapi.Account{
			"alice": {XID: "100", Handle: "alice"},
			"bob":   {XID: "200", Handle: "bob"},
		},
		searchMap: map[string][]domain.NormalizedPost{
			"alice": {{PostID: "p1", AuthorUsername: "alice", Text: "fresh", PostedAt: time.Now()}},
		},
	}
	uc, accountRepo, _ := newTestTracker(client, openStore{})
	seedAccounts(t, accountRepo, "u1", "alice", "bob")

	view, err := uc.GetRefreshedOrCachedView(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetRefreshedOrCachedView: %v", err)
	}
	if view.FromCache {
		t.Error("fresh view flagged as cached")
	}
	if view.RateLimit.Active {
		t.Error("fresh view flagged as rate limited")
	}
	if len(view.Accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(view.Accounts))
	}
	// One combined search serves the whole refresh.
	if client.searchHits != 1 {
		t.Errorf("search called %d times, want 1", client.searchHits)
	}

	byHandle := make(map[string]int)
	for _, a := range view.Accounts {
		byHandle[a.Account.Handle] = len(a.Posts)
	}
	if byHandle["alice"] != 1 {
		t.Errorf("alice posts = %d, want 1", byHandle["alice"])
	}
	if got, ok := byHandle["bob"]; !ok || got != 0 {
		t.Errorf("bob missing or has posts: %d (present=%v)", got, ok)
	}
}

func TestThrottledViewFallsBackToCache(t *testing.T) {
	client := &fakeXClient{accounts: map[string]*xapi.Account{}}
	uc, accountRepo, postRepo := newTestTracker(client, closedStore{})
	seedAccounts(t, accountRepo, "u1", "alice")
	postRepo.add(&domain.Post{
		ID: "row-p1", PostID: "p1", TrackedBy: "u1",
		AuthorUsername: "alice", Text: "cached", PostedAt: time.Now(),
	})

	view, err := uc.GetRefreshedOrCachedView(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetRefreshedOrCachedView: %v", err)
	}
	if !view.FromCache {
		t.Error("throttled view not flagged as cached")
	}
	if !view.RateLimit.Active {
		t.Error("throttled view not flagged as rate limited")
	}
	if view.RateLimit.MinutesRemaining <= 0 {
		t.Errorf("minutes remaining = %d, want > 0", view.RateLimit.MinutesRemaining)
	}
	if client.searchHits != 0 {
		t.Error("throttled refresh still hit the upstream API")
	}
	if len(view.Accounts) != 1 || len(view.Accounts[0].Posts) != 1 {
		t.Fatalf("cached view wrong shape: %+v", view.Accounts)
	}
	if view.Accounts[0].Posts[0].Text != "cached" {
		t.Errorf("cached post text = %q", view.Accounts[0].Posts[0].Text)
	}
}

func TestFetchFailureFallsBackToCache(t *testing.T) {
	client := &fakeXClient{
		accounts:  map[string]*xapi.Account{},
		searchErr: errors.New("upstream down"),
	}
	uc, accountRepo, postRepo := newTestTracker(client, openStore{})
	seedAccounts(t, accountRepo, "u1", "alice")
	postRepo.add(&domain.Post{
		ID: "row-p1", PostID: "p1", TrackedBy: "u1",
		AuthorUsername: "alice", Text: "cached", PostedAt: time.Now(),
	})

	view, err := uc.GetRefreshedOrCachedView(context.Background(), "u1")
	if err != nil {
		t.Fatalf("fetch failure must not surface as an error, got %v", err)
	}
	if !view.FromCache {
		t.Error("degraded view not flagged as cached")
	}
	if view.RateLimit.Active {
		t.Error("fetch failure flagged as rate limiting")
	}
	if view.CacheCause == "" {
		t.Error("degraded view carries no cause")
	}
}

func TestSuggestStoresDraft(t *testing.T) {
	client := &fakeXClient{accounts: map[string]*xapi.Account{}}
	accountRepo := newFakeAccountRepo()
	postRepo := newFakePostRepo()
	replies := NewReplyUsecase(postRepo)
	uc := NewTrackerUsecase(accountRepo, postRepo, newFakeContextRepo(),
		NewFetcher(client, quota.NewGate(openStore{}, 15)), replies, &fakeAI{reply: "generated"}, 5)

	postRepo.add(&domain.Post{ID: "row-p1", PostID: "p1", TrackedBy: "u1", Text: "original"})

	post, err := uc.Suggest(context.Background(), "u1", "p1", dto.SuggestRequest{})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if post.Reply.Text != "generated" {
		t.Errorf("draft text = %q", post.Reply.Text)
	}
	if got := post.Reply.State(); got != domain.ReplyStateDrafted {
		t.Errorf("state = %s, want drafted", got)
	}
}

func seedAccounts(t *testing.T, repo *fakeAccountRepo, userID string, handles ...string) {
	t.Helper()
	for _, h := range handles {
		if err := repo.Create(&domain.TrackedAccount{Handle: h, UserID: userID, XID: "x-" + h}); err != nil {
			t.Fatalf("seed account %s: %v", h, err)
		}
	}
}

package usecase

import (
	"context"

	"xpress-backend/internal/quota"
	"xpress-backend/internal/tracker/domain"
	"xpress-backend/pkg/xapi"
)

// Fetcher wraps the X API client behind the quota gate. When the gate is
// closed it fails with a RateLimitedError carrying the remaining wait; the
// caller decides whether to fall back to cached data, the fetcher never does.
type Fetcher struct {
	client xapi.Client
	gate   *quota.Gate
}

func NewFetcher(client xapi.Client, gate *quota.Gate) *Fetcher {
	return &Fetcher{client: client, gate: gate}
}

func (f *Fetcher) throttled(userID string) error {
	if f.gate.CanCall(userID) {
		return nil
	}
	return &domain.RateLimitedError{Minutes: f.gate.MinutesUntilNextCall(userID)}
}

// ResolveAndFetch resolves a handle and pulls its latest posts as a single
// billed operation, so tracking a new account spends one quota slot rather
// than two. When the resolve succeeds but the post fetch fails, the account
// is still returned alongside the error.
func (f *Fetcher) ResolveAndFetch(ctx context.Context, userID, handle string, limit int) (*xapi.Account, []domain.NormalizedPost, error) {
	if err := f.throttled(userID); err != nil {
		return nil, nil, err
	}
	f.gate.RecordCall(userID)
	account, err := f.client.ResolveAccount(ctx, handle)
	if err != nil {
		return nil, nil, err
	}
	posts, err := f.client.FetchRecentPosts(ctx, account.XID, limit)
	if err != nil {
		return account, nil, err
	}
	return account, posts, nil
}

// FetchPostsForMany fetches posts for all handles in one combined query so a
// whole refresh cycle bills a single call against the quota.
func (f *Fetcher) FetchPostsForMany(ctx context.Context, userID string, handles []string, windowHours int) (map[string][]domain.NormalizedPost, error) {
	if err := f.throttled(userID); err != nil {
		return nil, err
	}
	f.gate.RecordCall(userID)
	return f.client.SearchPostsByAuthors(ctx, handles, windowHours)
}

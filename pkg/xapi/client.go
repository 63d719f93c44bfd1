package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"xpress-backend/internal/tracker/domain"

	"golang.org/x/time/rate"
)

// Account is an upstream account resolved from a handle.
type Account struct {
	XID             string `json:"x_id"`
	Name            string `json:"name"`
	Handle          string `json:"handle"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Client is the slice of the X API v2 this application uses.
type Client interface {
	ResolveAccount(ctx context.Context, handle string) (*Account, error)
	FetchRecentPosts(ctx context.Context, xid string, limit int) ([]domain.NormalizedPost, error)
	SearchPostsByAuthors(ctx context.Context, handles []string, windowHours int) (map[string][]domain.NormalizedPost, error)
	PostReply(ctx context.Context, text, inReplyToID string) (string, error)
	Me(ctx context.Context) (*Account, error)
}

// HTTPClient talks to the X API v2. With a bearer token it acts with the
// application's credentials; built over an OAuth2 http.Client it acts as a
// connected user.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewHTTPClient returns a client using the app's own bearer token.
func NewHTTPClient(bearerToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     "https://api.twitter.com/2",
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		// Courtesy limiter under the quota gate: smooths bursts within a
		// single request, it is not the per-user throttle.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// NewUserClient returns a client whose requests are authenticated by the
// supplied HTTP client (an oauth2.NewClient carrying a user's token source).
func NewUserClient(httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    "https://api.twitter.com/2",
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

func (c *HTTPClient) do(ctx context.Context, method, u string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("x api status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

// ResolveAccount looks up a handle and returns its stable identifier.
func (c *HTTPClient) ResolveAccount(ctx context.Context, handle string) (*Account, error) {
	handle = domain.NormalizeHandle(handle)
	if handle == "" {
		return nil, ErrNotFound
	}
	u := fmt.Sprintf("%s/users/by/username/%s", c.baseURL, url.PathEscape(handle))
	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Data *struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
	}
	if raw.Data == nil || raw.Data.ID == "" {
		return nil, ErrNotFound
	}
	return &Account{
		XID:    raw.Data.ID,
		Name:   raw.Data.Name,
		Handle: domain.NormalizeHandle(raw.Data.Username),
	}, nil
}

// FetchRecentPosts returns the account's latest original posts, newest first.
// Retweets and reply-posts are excluded upstream.
func (c *HTTPClient) FetchRecentPosts(ctx context.Context, xid string, limit int) ([]domain.NormalizedPost, error) {
	u := fmt.Sprintf("%s/users/%s/tweets?max_results=%d&tweet.fields=created_at,public_metrics,author_id&exclude=retweets,replies",
		c.baseURL, url.PathEscape(xid), clamp(limit, 5, 100))
	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	items, _, err := parsePostsEnvelope(body)
	if err != nil {
		return nil, err
	}
	posts := make([]domain.NormalizedPost, 0, len(items))
	for _, it := range items {
		posts = append(posts, normalizePost(it, ""))
	}
	sortNewestFirst(posts)
	return posts, nil
}

// SearchPostsByAuthors fetches recent posts for many handles in one combined
// search query, mapping each post back to its handle through the author-id
// lookup returned alongside the matches. Every requested handle appears in the
// result, with an empty slice when nothing matched.
func (c *HTTPClient) SearchPostsByAuthors(ctx context.Context, handles []string, windowHours int) (map[string][]domain.NormalizedPost, error) {
	result := make(map[string][]domain.NormalizedPost, len(handles))
	normalized := make([]string, 0, len(handles))
	for _, h := range handles {
		h = domain.NormalizeHandle(h)
		if h == "" {
			continue
		}
		normalized = append(normalized, h)
		result[h] = []domain.NormalizedPost{}
	}
	if len(normalized) == 0 {
		return result, nil
	}

	terms := make([]string, len(normalized))
	for i, h := range normalized {
		terms[i] = "from:" + h
	}
	query := "(" + strings.Join(terms, " OR ") + ") -is:retweet -is:reply"

	if windowHours <= 0 {
		windowHours = 6
	}
	startTime := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour).Format(time.RFC3339)

	u := fmt.Sprintf("%s/tweets/search/recent?max_results=100&tweet.fields=created_at,public_metrics,author_id&expansions=author_id&user.fields=username&start_time=%s&query=%s",
		c.baseURL, url.QueryEscape(startTime), url.QueryEscape(query))
	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	items, users, err := parsePostsEnvelope(body)
	if err != nil {
		return nil, err
	}

	byAuthorID := make(map[string]string, len(users))
	for _, usr := range users {
		byAuthorID[usr.ID] = domain.NormalizeHandle(usr.Username)
	}

	for _, it := range items {
		handle, ok := byAuthorID[it.AuthorID]
		if !ok {
			continue
		}
		if _, requested := result[handle]; !requested {
			continue
		}
		result[handle] = append(result[handle], normalizePost(it, handle))
	}
	for h := range result {
		sortNewestFirst(result[h])
	}
	return result, nil
}

// PostReply publishes text, optionally as a reply to an existing post, and
// returns the created post's id.
func (c *HTTPClient) PostReply(ctx context.Context, text, inReplyToID string) (string, error) {
	payload := map[string]interface{}{"text": text}
	if inReplyToID != "" {
		payload["reply"] = map[string]string{"in_reply_to_tweet_id": inReplyToID}
	}
	body, _ := json.Marshal(payload)

	respBody, err := c.do(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var raw struct {
		Data *struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamShape, err)
	}
	if raw.Data == nil || raw.Data.ID == "" {
		return "", ErrUpstreamShape
	}
	return raw.Data.ID, nil
}

// Me returns the identity behind the client's credentials.
func (c *HTTPClient) Me(ctx context.Context) (*Account, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/users/me?user.fields=profile_image_url", nil)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Data *struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
	}
	if raw.Data == nil {
		return nil, ErrUpstreamShape
	}
	return &Account{
		XID:             raw.Data.ID,
		Name:            raw.Data.Name,
		Handle:          domain.NormalizeHandle(raw.Data.Username),
		ProfileImageURL: raw.Data.ProfileImageURL,
	}, nil
}

func normalizePost(it postJSON, handle string) domain.NormalizedPost {
	p := domain.NormalizedPost{
		PostID:         it.ID,
		AuthorID:       it.AuthorID,
		AuthorUsername: handle,
		Text:           it.Text,
		PostedAt:       it.CreatedAt,
	}
	// Missing metrics blocks default every counter to zero.
	if it.PublicMetrics != nil {
		p.LikeCount = it.PublicMetrics.LikeCount
		p.RepostCount = it.PublicMetrics.RetweetCount
		p.ReplyCount = it.PublicMetrics.ReplyCount
	}
	return p
}

func sortNewestFirst(posts []domain.NormalizedPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PostedAt.After(posts[j].PostedAt)
	})
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

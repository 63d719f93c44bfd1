package xapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestClient(srv *httptest.Server) *HTTPClient {
	return &HTTPClient{
		baseURL:     srv.URL,
		bearerToken: "test-token",
		httpClient:  srv.Client(),
		limiter:     rate.NewLimiter(rate.Inf, 1),
	}
}

func TestResolveAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header = %q", got)
		}
		if r.URL.Path != "/users/by/username/alice" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "100", "name": "Alice", "username": "Alice"},
		})
	}))
	defer srv.Close()

	account, err := newTestClient(srv).ResolveAccount(context.Background(), "@Alice")
	if err != nil {
		t.Fatalf("ResolveAccount: %v", err)
	}
	if account.XID != "100" || account.Handle != "alice" {
		t.Errorf("account = %+v", account)
	}
}

func TestResolveAccountErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuth},
		{"forbidden", http.StatusForbidden, ErrAuth},
		{"missing", http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv).ResolveAccount(context.Background(), "alice")
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSearchPostsByAuthorsEveryHandlePresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		if q != "(from:alice OR from:bob OR from:carol) -is:retweet -is:reply" {
			t.Errorf("query = %q", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "p1", "text": "hi", "author_id": "100", "created_at": time.Now().Format(time.RFC3339)},
				{"id": "p2", "text": "yo", "author_id": "100", "created_at": time.Now().Format(time.RFC3339)},
			},
			"includes": map[string]any{
				"users": []map[string]string{{"id": "100", "username": "Alice"}},
			},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv).SearchPostsByAuthors(context.Background(), []string{"alice", "@Bob", "carol"}, 6)
	if err != nil {
		t.Fatalf("SearchPostsByAuthors: %v", err)
	}

	// Zero-match handles still get a key with an empty list.
	for _, h := range []string{"alice", "bob", "carol"} {
		if _, ok := got[h]; !ok {
			t.Errorf("handle %s missing from result map", h)
		}
	}
	if len(got["alice"]) != 2 {
		t.Errorf("alice posts = %d, want 2", len(got["alice"]))
	}
	if len(got["bob"]) != 0 || len(got["carol"]) != 0 {
		t.Errorf("zero-match handles carry posts: bob=%d carol=%d", len(got["bob"]), len(got["carol"]))
	}
	for _, p := range got["alice"] {
		if p.AuthorUsername != "alice" {
			t.Errorf("author = %q, want alice", p.AuthorUsername)
		}
	}
}

func TestFetchRecentPostsNewestFirst(t *testing.T) {
	older := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "old", "text": "old", "created_at": older.Format(time.RFC3339)},
				{"id": "new", "text": "new", "created_at": newer.Format(time.RFC3339)},
			},
		})
	}))
	defer srv.Close()

	posts, err := newTestClient(srv).FetchRecentPosts(context.Background(), "100", 5)
	if err != nil {
		t.Fatalf("FetchRecentPosts: %v", err)
	}
	if len(posts) != 2 || posts[0].PostID != "new" {
		t.Errorf("posts = %+v, want newest first", posts)
	}
}

func TestPostReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tweets" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Text  string `json:"text"`
			Reply *struct {
				InReplyTo string `json:"in_reply_to_tweet_id"`
			} `json:"reply"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Text != "hello" || payload.Reply == nil || payload.Reply.InReplyTo != "p1" {
			t.Errorf("payload = %+v", payload)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"id": "created"}})
	}))
	defer srv.Close()

	id, err := newTestClient(srv).PostReply(context.Background(), "hello", "p1")
	if err != nil {
		t.Fatalf("PostReply: %v", err)
	}
	if id != "created" {
		t.Errorf("id = %q", id)
	}
}

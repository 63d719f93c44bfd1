package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	trackerdomain "xpress-backend/internal/tracker/domain"
	"xpress-backend/internal/xauth/domain"
	"xpress-backend/pkg/xapi"
)

type fakeCredRepo struct {
	creds map[string]*domain.XCredential
}

func newFakeCredRepo() *fakeCredRepo {
	return &fakeCredRepo{creds: make(map[string]*domain.XCredential)}
}

func (r *fakeCredRepo) Upsert(_ context.Context, cred *domain.XCredential) (*domain.XCredential, error) {
	cp := *cred
	cp.Active = true
	r.creds[cred.UserID+"/"+cred.XID] = &cp
	return &cp, nil
}

func (r *fakeCredRepo) FindActiveByUser(_ context.Context, userID string) (*domain.XCredential, error) {
	for _, c := range r.creds {
		if c.UserID == userID && c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCredRepo) FindByUserAndXID(_ context.Context, userID, xID string) (*domain.XCredential, error) {
	c, ok := r.creds[userID+"/"+xID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCredRepo) ListByUser(_ context.Context, userID string) ([]domain.XCredential, error) {
	var out []domain.XCredential
	for _, c := range r.creds {
		if c.UserID == userID && c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCredRepo) UpdateTokens(_ context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	for _, c := range r.creds {
		if c.ID == id {
			c.AccessToken = accessToken
			c.RefreshToken = refreshToken
			c.ExpiresAt = expiresAt
			return nil
		}
	}
	return errors.New("credential not found")
}

func (r *fakeCredRepo) Deactivate(_ context.Context, userID, xID string) error {
	c, ok := r.creds[userID+"/"+xID]
	if !ok || !c.Active {
		return domain.ErrNotConnected
	}
	c.Active = false
	return nil
}

// fakeAppClient records the last publish through the app credentials.
type fakeAppClient struct {
	lastText    string
	lastReplyTo string
	publishErr  error
}

func (c *fakeAppClient) ResolveAccount(context.Context, string) (*xapi.Account, error) {
	return nil, xapi.ErrNotFound
}

func (c *fakeAppClient) FetchRecentPosts(context.Context, string, int) ([]trackerdomain.NormalizedPost, error) {
	return nil, nil
}

func (c *fakeAppClient) SearchPostsByAuthors(context.Context, []string, int) (map[string][]trackerdomain.NormalizedPost, error) {
	return nil, nil
}

func (c *fakeAppClient) PostReply(_ context.Context, text, inReplyToID string) (string, error) {
	if c.publishErr != nil {
		return "", c.publishErr
	}
	c.lastText = text
	c.lastReplyTo = inReplyToID
	return "x-created", nil
}

func (c *fakeAppClient) Me(context.Context) (*xapi.Account, error) {
	return &xapi.Account{XID: "app", Handle: "app"}, nil
}

func newTestUsecase(repo *fakeCredRepo, app *fakeAppClient) XAuthUsecase {
	oauth := xapi.NewOAuthService("client-id", "client-secret", "http://localhost/callback")
	return NewXAuthUsecase(repo, oauth, app)
}

func TestPublishRejectsOverlongText(t *testing.T) {
	uc := newTestUsecase(newFakeCredRepo(), &fakeAppClient{})

	_, err := uc.Publish(context.Background(), strings.Repeat("a", 281), "", "")
	if !errors.Is(err, domain.ErrTooLong) {
		t.Fatalf("err = %v, want ErrTooLong", err)
	}

	// 280 runes of multibyte text is fine; the limit counts characters.
	if _, err := uc.Publish(context.Background(), strings.Repeat("é", 280), "", ""); err != nil {
		t.Fatalf("280-rune publish: %v", err)
	}
}

func TestPublishRejectsEmptyText(t *testing.T) {
	uc := newTestUsecase(newFakeCredRepo(), &fakeAppClient{})
	if _, err := uc.Publish(context.Background(), "", "", ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestPublishThroughAppCredentials(t *testing.T) {
	app := &fakeAppClient{}
	uc := newTestUsecase(newFakeCredRepo(), app)

	id, err := uc.Publish(context.Background(), "hello", "p1", "")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if id != "x-created" {
		t.Errorf("id = %q", id)
	}
	if app.lastText != "hello" || app.lastReplyTo != "p1" {
		t.Errorf("app client saw text=%q replyTo=%q", app.lastText, app.lastReplyTo)
	}
}

func TestPublishAsUserWithoutConnection(t *testing.T) {
	uc := newTestUsecase(newFakeCredRepo(), &fakeAppClient{})

	_, err := uc.Publish(context.Background(), "hello", "p1", "u1")
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestDisconnectUnknownAccount(t *testing.T) {
	repo := newFakeCredRepo()
	uc := newTestUsecase(repo, &fakeAppClient{})

	if err := uc.Disconnect(context.Background(), "u1", "x-1"); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}

	repo.Upsert(context.Background(), &domain.XCredential{ID: "c1", UserID: "u1", XID: "x-1", AccessToken: "a", RefreshToken: "r"})
	if err := uc.Disconnect(context.Background(), "u1", "x-1"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	accounts, _ := uc.ListAccounts(context.Background(), "u1")
	if len(accounts) != 0 {
		t.Errorf("disconnected account still listed")
	}
}

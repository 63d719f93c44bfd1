package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/oauth2"

	"xpress-backend/internal/xauth/domain"
	"xpress-backend/internal/xauth/repository"
	"xpress-backend/pkg/xapi"
)

// XAuthUsecase manages delegated X accounts and publishes posts through them.
type XAuthUsecase interface {
	AuthURL(userID string) (string, error)
	HandleCallback(ctx context.Context, code, state string) (*domain.XCredential, error)
	ListAccounts(ctx context.Context, userID string) ([]domain.XCredential, error)
	Disconnect(ctx context.Context, userID, xID string) error
	// Publish sends text, optionally as a reply, through the application's own
	// credentials or, when asUserID is set, through that user's connected
	// account. Returns the created post id.
	Publish(ctx context.Context, text, inReplyToID, asUserID string) (string, error)
}

type xauthUsecase struct {
	credRepo  repository.CredentialRepository
	oauth     *xapi.OAuthService
	appClient xapi.Client
}

func NewXAuthUsecase(credRepo repository.CredentialRepository, oauth *xapi.OAuthService, appClient xapi.Client) XAuthUsecase {
	return &xauthUsecase{
		credRepo:  credRepo,
		oauth:     oauth,
		appClient: appClient,
	}
}

func (u *xauthUsecase) AuthURL(userID string) (string, error) {
	return u.oauth.AuthURL(userID)
}

// HandleCallback finishes the OAuth flow: exchanges the code, asks the X API
// who the token belongs to, and stores the credential for that user.
func (u *xauthUsecase) HandleCallback(ctx context.Context, code, state string) (*domain.XCredential, error) {
	token, userID, err := u.oauth.Exchange(ctx, code, state)
	if err != nil {
		return nil, err
	}

	httpClient, _ := u.oauth.UserHTTPClient(ctx, token.AccessToken, token.RefreshToken, token.Expiry, nil)
	me, err := xapi.NewUserClient(httpClient).Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to identify connected account: %w", err)
	}

	cred := &domain.XCredential{
		UserID:          userID,
		XID:             me.XID,
		Username:        me.Handle,
		Name:            me.Name,
		ProfileImageURL: me.ProfileImageURL,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		ExpiresAt:       token.Expiry,
		Scope:           "tweet.read tweet.write users.read offline.access",
	}
	return u.credRepo.Upsert(ctx, cred)
}

func (u *xauthUsecase) ListAccounts(ctx context.Context, userID string) ([]domain.XCredential, error) {
	return u.credRepo.ListByUser(ctx, userID)
}

func (u *xauthUsecase) Disconnect(ctx context.Context, userID, xID string) error {
	return u.credRepo.Deactivate(ctx, userID, xID)
}

func (u *xauthUsecase) Publish(ctx context.Context, text, inReplyToID, asUserID string) (string, error) {
	if len([]rune(text)) > domain.MaxPostLength {
		return "", domain.ErrTooLong
	}
	if text == "" {
		return "", errors.New("text must not be empty")
	}

	if asUserID == "" {
		return u.appClient.PostReply(ctx, text, inReplyToID)
	}

	cred, err := u.credRepo.FindActiveByUser(ctx, asUserID)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", domain.ErrNotConnected
	}

	client, notifier := u.userClient(ctx, cred)
	id, err := xapi.NewUserClient(client).PostReply(ctx, text, inReplyToID)
	if err != nil {
		if notifier.RefreshError() != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrRefreshFailed, notifier.RefreshError())
		}
		return "", err
	}
	return id, nil
}

// userClient builds an HTTP client for the credential. Refreshed token pairs
// are written back so the next publish starts from the fresh pair.
func (u *xauthUsecase) userClient(ctx context.Context, cred *domain.XCredential) (*http.Client, *xapi.TokenNotifier) {
	credID := cred.ID
	return u.oauth.UserHTTPClient(ctx, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, func(t *oauth2.Token) error {
		refresh := t.RefreshToken
		if refresh == "" {
			refresh = cred.RefreshToken
		}
		if err := u.credRepo.UpdateTokens(context.Background(), credID, t.AccessToken, refresh, t.Expiry); err != nil {
			log.Printf("[WARN] failed to persist refreshed token for credential %s: %v", credID, err)
			return err
		}
		return nil
	})
}

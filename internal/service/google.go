package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"inkpress/internal/config"
	"inkpress/internal/model"
	"inkpress/internal/repository"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleService handles Google OAuth sign-in. Accounts arriving through
// Google are considered verified; an existing local account with the same
// email gets linked rather than duplicated.
type GoogleService struct {
	repo        repository.UserRepository
	oauthConfig *oauth2.Config
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func NewGoogleService(repo repository.UserRepository, cfg *config.Config) *GoogleService {
	return &GoogleService{
		repo: repo,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the Google consent page URL for the given CSRF state.
func (s *GoogleService) AuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode trades the authorization code for the Google profile and
// resolves it to a local user, creating or linking as needed.
func (s *GoogleService) ExchangeCode(ctx context.Context, code string) (*model.User, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", model.ErrUpstreamFailure, err)
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.resolveUser(ctx, info)
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch userinfo: %v", model.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", model.ErrUpstreamFailure, resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", model.ErrUpstreamFailure, err)
	}

	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: incomplete userinfo", model.ErrUpstreamFailure)
	}

	return &info, nil
}

// resolveUser maps a Google profile to a local account. Lookup order:
// google_id first, then email (link the Google ID to the local account),
// then create a fresh verified account with no local password.
func (s *GoogleService) resolveUser(ctx context.Context, info *googleUserInfo) (*model.User, error) {
	user, err := s.repo.GetByGoogleID(ctx, info.ID)
	if err == nil {
		return user, nil
	}
	if err != model.ErrUserNotFound {
		return nil, err
	}

	email := normalizeEmail(info.Email)
	user, err = s.repo.GetByEmail(ctx, email)
	if err == nil {
		if err := s.repo.LinkGoogleID(ctx, user.ID, info.ID); err != nil {
			return nil, fmt.Errorf("failed to link google id: %w", err)
		}
		googleID := info.ID
		user.GoogleID = &googleID
		if !user.IsVerified {
			// Google vouches for the email; no code round-trip needed.
			if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
				return nil, fmt.Errorf("failed to mark verified: %w", err)
			}
			user.IsVerified = true
		}
		return user, nil
	}
	if err != model.ErrUserNotFound {
		return nil, err
	}

	googleID := info.ID
	user = &model.User{
		FullName:   info.Name,
		Email:      email,
		IsVerified: true,
		GoogleID:   &googleID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/lumenboard/lumenboard/internal/config"
)

// GoogleVerifier implements Verifier against Google's OAuth endpoints
type GoogleVerifier struct {
	clientID string
	oauth    *oauth2.Config
}

// NewGoogleVerifier builds a verifier from the upstream client credentials
func NewGoogleVerifier(cfg *config.UpstreamConfig) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: cfg.ClientID,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the provider authorization URL carrying the caller's state
func (v *GoogleVerifier) AuthURL(state string) string {
	return v.oauth.AuthCodeURL(state)
}

// Exchange swaps the authorization code for tokens and validates the ID
// token, returning the verified profile.
func (v *GoogleVerifier) Exchange(ctx context.Context, code string) (*Profile, error) {
	if v.clientID == "" {
		return nil, errors.New("upstream client id not configured")
	}

	tok, err := v.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("id token not present in provider response")
	}

	payload, err := idtoken.Validate(ctx, rawIDToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("id token validation failed: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("email not present in id token")
	}
	name, _ := payload.Claims["name"].(string)

	return &Profile{
		Email:     email,
		Name:      name,
		SubjectID: payload.Subject,
	}, nil
}

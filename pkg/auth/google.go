package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

var ErrEmailNotVerified = errors.New("google account e-mail is not verified")

// GoogleIdentity is the subset of a verified Google ID token the service relies on.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier checks Google ID tokens issued to the configured OAuth client.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (GoogleIdentity, error)
}

type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// IDTokenVerifier validates tokens against Google's published keys.
type IDTokenVerifier struct {
	audience string
	validate validateFunc
}

// NewGoogleVerifier constructs a verifier bound to the OAuth client id.
func NewGoogleVerifier(clientID string) (*IDTokenVerifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("google client id is required")
	}
	return &IDTokenVerifier{audience: clientID, validate: idtoken.Validate}, nil
}

// Verify validates signature, audience and expiry and returns the identity claims.
func (v *IDTokenVerifier) Verify(ctx context.Context, rawToken string) (GoogleIdentity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return GoogleIdentity{}, fmt.Errorf("id token is required")
	}
	payload, err := v.validate(ctx, rawToken, v.audience)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("validate id token: %w", err)
	}
	return identityFromPayload(payload)
}

func identityFromPayload(payload *idtoken.Payload) (GoogleIdentity, error) {
	if payload == nil || payload.Subject == "" {
		return GoogleIdentity{}, fmt.Errorf("id token has no subject")
	}
	id := GoogleIdentity{
		Subject: payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}
	if verified, ok := payload.Claims["email_verified"].(bool); id.Email != "" && ok && !verified {
		return GoogleIdentity{}, ErrEmailNotVerified
	}
	return id, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

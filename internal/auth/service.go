// Package auth signs cashiers in with Google and manages their API sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/fairshop/fairpos-backend/pkg/auth"
	"github.com/fairshop/fairpos-backend/pkg/auth/session"
	"github.com/fairshop/fairpos-backend/pkg/config"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/logger"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	SignInWithGoogle(ctx context.Context, req GoogleSignInRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, claims *pkgAuth.AccessTokenClaims) (*MeResponse, error)
	ReplaceDriveToken(ctx context.Context, sessionID string, req DriveTokenRequest) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
	StoreDriveToken(ctx context.Context, sessionID, token string, expiresAt time.Time) error
	HasDriveToken(ctx context.Context, sessionID string) (bool, error)
}

// registerStates follows a session's register across rotation and logout.
type registerStates interface {
	Move(ctx context.Context, fromSession, toSession string) error
	Delete(ctx context.Context, sessionID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Verifier  pkgAuth.GoogleVerifier
	Sessions  sessionManager
	Registers registerStates
	JWTConfig config.JWTConfig
	Google    config.GoogleConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	verifier  pkgAuth.GoogleVerifier
	sessions  sessionManager
	registers registerStates
	jwtCfg    config.JWTConfig
	google    config.GoogleConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Verifier == nil {
		return nil, fmt.Errorf("google verifier is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Registers == nil {
		return nil, fmt.Errorf("register state store is required")
	}
	svc := &service{
		verifier:  params.Verifier,
		sessions:  params.Sessions,
		registers: params.Registers,
		jwtCfg:    params.JWTConfig,
		google:    params.Google,
		logg:      params.Logger,
		now:       params.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) SignInWithGoogle(ctx context.Context, req GoogleSignInRequest) (*TokenResponse, error) {
	identity, err := s.verifier.Verify(ctx, strings.TrimSpace(req.IDToken))
	if err != nil {
		if errors.Is(err, pkgAuth.ErrEmailNotVerified) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "google account e-mail is not verified")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid google credential")
	}
	if !s.google.EmailAllowed(identity.Email) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is not allowed to use this register")
	}

	now := s.now().UTC()
	accessID := session.NewAccessID()
	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	if err := s.sessions.StoreDriveToken(ctx, accessID, req.AccessToken, expiry(now, req.ExpiresIn)); err != nil {
		_ = s.sessions.Revoke(ctx, accessID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store drive token")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: identity.Subject,
		Email:  identity.Email,
		Name:   identity.Name,
		JTI:    accessID,
	})
	if err != nil {
		_ = s.sessions.Revoke(ctx, accessID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"user_id": identity.Subject, "session_id": accessID}), "auth.signed_in")
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &UserDTO{ID: identity.Subject, Email: identity.Email, Name: identity.Name},
	}, nil
}

// Refresh rotates the session and carries the register over to the new session id.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.SessionID(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	if err := s.registers.Move(ctx, claims.SessionID(), newAccessID); err != nil {
		s.logg.WarnErr(s.logg.WithSessionID(ctx, newAccessID), "auth.register_move_failed", err)
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &TokenResponse{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout revokes the session, its Drive token and its register.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	if err := s.registers.Delete(ctx, sessionID); err != nil {
		s.logg.WarnErr(s.logg.WithSessionID(ctx, sessionID), "auth.register_delete_failed", err)
	}
	return nil
}

func (s *service) Me(ctx context.Context, claims *pkgAuth.AccessTokenClaims) (*MeResponse, error) {
	if claims == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	linked, err := s.sessions.HasDriveToken(ctx, claims.SessionID())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check drive token")
	}
	return &MeResponse{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Name:        claims.Name,
		DriveLinked: linked,
	}, nil
}

// ReplaceDriveToken stores a freshly consented Google token for the session.
func (s *service) ReplaceDriveToken(ctx context.Context, sessionID string, req DriveTokenRequest) error {
	token := strings.TrimSpace(req.AccessToken)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access_token is required").
			WithDetails(map[string]string{"access_token": "is required"})
	}
	if err := s.sessions.StoreDriveToken(ctx, sessionID, token, expiry(s.now().UTC(), req.ExpiresIn)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store drive token")
	}
	return nil
}

func expiry(now time.Time, expiresIn int) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}

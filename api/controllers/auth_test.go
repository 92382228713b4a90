package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairshop/fairpos-backend/internal/auth"
	pkgAuth "github.com/fairshop/fairpos-backend/pkg/auth"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
)

type stubAuth struct {
	signIn     auth.GoogleSignInRequest
	revoked    string
	driveToken auth.DriveTokenRequest
	err        error
}

func (s *stubAuth) SignInWithGoogle(ctx context.Context, req auth.GoogleSignInRequest) (*auth.TokenResponse, error) {
	s.signIn = req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.TokenResponse{AccessToken: "access", RefreshToken: "refresh", User: &auth.UserDTO{ID: "google-sub"}}, nil
}

func (s *stubAuth) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (s *stubAuth) Logout(ctx context.Context, sessionID string) error {
	s.revoked = sessionID
	return s.err
}

func (s *stubAuth) Me(ctx context.Context, claims *pkgAuth.AccessTokenClaims) (*auth.MeResponse, error) {
	return &auth.MeResponse{UserID: claims.UserID, Email: claims.Email, DriveLinked: true}, s.err
}

func (s *stubAuth) ReplaceDriveToken(ctx context.Context, sessionID string, req auth.DriveTokenRequest) error {
	s.driveToken = req
	return s.err
}

func TestAuthGoogle(t *testing.T) {
	stub := &stubAuth{}
	rec := httptest.NewRecorder()
	AuthGoogle(stub, testLogger()).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/google", map[string]any{"id_token": "id", "access_token": "ya29", "expires_in": 3599}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ya29", stub.signIn.AccessToken)
	assert.Equal(t, 3599, stub.signIn.ExpiresIn)
	var tokens auth.TokenResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &tokens))
	assert.Equal(t, "access", tokens.AccessToken)

	rec = httptest.NewRecorder()
	AuthGoogle(stub, testLogger()).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/google", map[string]any{"id_token": "id"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthGoogleRejected(t *testing.T) {
	stub := &stubAuth{err: pkgerrors.New(pkgerrors.CodeForbidden, "account not allowed")}
	rec := httptest.NewRecorder()
	AuthGoogle(stub, testLogger()).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/google", map[string]any{"id_token": "id", "access_token": "ya29"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthLogoutAndMe(t *testing.T) {
	stub := &stubAuth{}
	rec := httptest.NewRecorder()
	AuthLogout(stub, testLogger()).ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), "s-9"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s-9", stub.revoked)

	rec = httptest.NewRecorder()
	AuthMe(stub, testLogger()).ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), "s-9"))
	require.Equal(t, http.StatusOK, rec.Code)
	var me auth.MeResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &me))
	assert.Equal(t, "google-sub", me.UserID)
	assert.True(t, me.DriveLinked)

	rec = httptest.NewRecorder()
	AuthMe(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthDriveToken(t *testing.T) {
	stub := &stubAuth{}
	rec := httptest.NewRecorder()
	req := withSession(jsonRequest(t, http.MethodPut, "/api/v1/auth/drive-token", map[string]any{"access_token": "ya29-new"}), "s-1")
	AuthDriveToken(stub, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ya29-new", stub.driveToken.AccessToken)
}

// Package settings manages the shop's payment QR image.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fairshop/fairpos-backend/pkg/auth/session"
	"github.com/fairshop/fairpos-backend/pkg/db"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/logger"
	"github.com/fairshop/fairpos-backend/pkg/metrics"
	"github.com/fairshop/fairpos-backend/pkg/storage"
)

// PaymentDTO is the payment settings payload.
type PaymentDTO struct {
	QRCodeURL string `json:"qr_code_url"`
}

// Image is a validated QR image upload.
type Image struct {
	MimeType string
	Ext      string
	Body     io.Reader
}

// Service reads and replaces the payment QR.
type Service interface {
	PaymentQRCodeURL(ctx context.Context) (string, error)
	ReplacePaymentQR(ctx context.Context, sessionID string, img Image) (string, error)
}

type settingStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Deps wires the settings service.
type Deps struct {
	Repo     settingStore
	Files    storage.FileStore
	Tokens   session.DriveTokenSource
	Metrics  *metrics.CommitMetrics
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	deps Deps
}

func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if deps.Files == nil {
		return nil, fmt.Errorf("file store required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("drive token source required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}, nil
}

// PaymentQRCodeURL returns the configured QR url, or "" when none was uploaded.
func (s *service) PaymentQRCodeURL(ctx context.Context) (string, error) {
	url, err := s.deps.Repo.Get(ctx, models.SettingPaymentQRCodeURL)
	if err != nil {
		if db.IsNotFound(err) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: read payment setting")
	}
	return url, nil
}

// ReplacePaymentQR publishes the image, then points the setting at it.
func (s *service) ReplacePaymentQR(ctx context.Context, sessionID string, img Image) (string, error) {
	if img.Body == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file is required").
			WithDetails(map[string]string{"file": "required"})
	}

	var url string
	err := s.deps.Metrics.Track(metrics.CommitPaymentQRUpdate, func() error {
		token, err := s.deps.Tokens.DriveToken(ctx, sessionID)
		if err != nil {
			if errors.Is(err, session.ErrNoDriveToken) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in again")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load drive token")
		}

		name := storage.PaymentQRName(s.deps.Now().In(s.deps.Location), img.Ext)
		obj, err := s.deps.Files.Publish(ctx, token, storage.Upload{Name: name, MimeType: img.MimeType, Body: img.Body})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload payment qr")
		}

		if err := s.deps.Repo.Set(ctx, models.SettingPaymentQRCodeURL, obj.PublicURL); err != nil {
			if delErr := s.deps.Files.Delete(ctx, token, obj.FileID); delErr != nil {
				s.deps.Logger.WarnErr(s.deps.Logger.WithField(ctx, "file_id", obj.FileID), "settings.qr_cleanup_failed", delErr)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: write payment setting")
		}
		url = obj.PublicURL
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMissingAccessToken is returned when an operation needs the user's Google token and none is available.
var ErrMissingAccessToken = errors.New("missing google access token")

// Upload describes a file to publish.
type Upload struct {
	Name     string
	MimeType string
	Body     io.Reader
}

// Object is a published, publicly readable file.
type Object struct {
	FileID    string
	PublicURL string
}

// FileStore publishes and removes user-owned files.
type FileStore interface {
	Publish(ctx context.Context, accessToken string, upload Upload) (Object, error)
	Delete(ctx context.Context, accessToken, fileID string) error
}

// PublicURL is the direct-view link for a Drive file id.
func PublicURL(fileID string) string {
	return "https://drive.google.com/uc?id=" + url.QueryEscape(fileID)
}

// FileIDFromURL recovers the file id from a stored image url (?id= or /d/<id>/ forms).
func FileIDFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty file url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}
	if id := u.Query().Get("id"); id != "" {
		return id, nil
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "d" && segments[i+1] != "" {
			return segments[i+1], nil
		}
	}
	return "", fmt.Errorf("no file id in %q", raw)
}

// ProductImageName builds yyyy-MM-dd_HH-mm-ss_<name>_<price>.<ext>.
func ProductImageName(now time.Time, name string, price decimal.Decimal, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", now.Format("2006-01-02_15-04-05"), sanitize(name), price.String(), normalizeExt(ext, "jpg"))
}

// PaymentQRName builds yyyy-MM-dd_QR_จ่ายเงิน.<ext>.
func PaymentQRName(now time.Time, ext string) string {
	return fmt.Sprintf("%s_QR_จ่ายเงิน.%s", now.Format("2006-01-02"), normalizeExt(ext, "png"))
}

func normalizeExt(ext, fallback string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return fallback
	}
	return ext
}

// sanitize drops path separators so a product name cannot escape the file name.
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	return path.Clean(name)
}

package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fairshop/fairpos-backend/pkg/config"
	"github.com/fairshop/fairpos-backend/pkg/logger"
	"github.com/fairshop/fairpos-backend/pkg/storage"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const defaultTimeout = 30 * time.Second

// Client publishes files into a Drive folder using the caller's OAuth access token.
type Client struct {
	folderID   string
	endpoint   string
	httpClient *http.Client
	logg       *logger.Logger
}

var _ storage.FileStore = (*Client)(nil)

// NewClient builds a Drive-backed file store for the configured folder.
func NewClient(cfg config.GoogleConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.DriveFolderID) == "" {
		return nil, errors.New("drive folder id is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{
		folderID:   cfg.DriveFolderID,
		endpoint:   cfg.DriveEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logg:       logg,
	}, nil
}

func (c *Client) service(ctx context.Context, accessToken string) (*drive.Service, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, storage.ErrMissingAccessToken
	}
	base := c.httpClient
	if base == nil {
		base = http.DefaultClient
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), src)

	opts := []option.ClientOption{option.WithHTTPClient(authed)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return svc, nil
}

// Publish uploads the file and makes it readable by anyone with the link.
func (c *Client) Publish(ctx context.Context, accessToken string, upload storage.Upload) (storage.Object, error) {
	if upload.Body == nil {
		return storage.Object{}, errors.New("upload body is required")
	}
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return storage.Object{}, err
	}

	meta := &drive.File{Name: upload.Name, MimeType: upload.MimeType, Parents: []string{c.folderID}}
	created, err := svc.Files.Create(meta).
		Media(upload.Body, googleapi.ContentType(upload.MimeType)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return storage.Object{}, fmt.Errorf("drive upload %q: %w", upload.Name, err)
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := svc.Permissions.Create(created.Id, perm).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		if delErr := c.delete(ctx, svc, created.Id); delErr != nil {
			c.logg.WarnErr(c.logg.WithField(ctx, "file_id", created.Id), "drive.cleanup_failed", delErr)
		}
		return storage.Object{}, fmt.Errorf("drive share %q: %w", created.Id, err)
	}

	return storage.Object{FileID: created.Id, PublicURL: storage.PublicURL(created.Id)}, nil
}

// Delete removes the file; a file that is already gone counts as deleted.
func (c *Client) Delete(ctx context.Context, accessToken, fileID string) error {
	if strings.TrimSpace(fileID) == "" {
		return errors.New("file id is required")
	}
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return err
	}
	return c.delete(ctx, svc, fileID)
}

func (c *Client) delete(ctx context.Context, svc *drive.Service, fileID string) error {
	err := svc.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do()
	if err == nil || isNotFound(err) {
		return nil
	}
	return fmt.Errorf("drive delete %q: %w", fileID, err)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fairshop/fairpos-backend/pkg/auth/session"
	"github.com/fairshop/fairpos-backend/pkg/db"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
	"github.com/fairshop/fairpos-backend/pkg/logger"
	"github.com/fairshop/fairpos-backend/pkg/metrics"
	"github.com/fairshop/fairpos-backend/pkg/storage"
	"github.com/shopspring/decimal"
)

const defaultCreateQuantity = 1

// Resolution is the outcome of a barcode lookup. Found=false is a normal result.
type Resolution struct {
	Found   bool
	Product *models.Product
}

// Draft pre-fills the add-product form.
type Draft struct {
	Barcode string `json:"barcode"`
}

// Image is a validated image upload.
type Image struct {
	MimeType string
	Ext      string
	Body     io.Reader
}

// CreateInput holds the add-product form. Nil Quantity defaults to 1.
type CreateInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Quantity    *int
	Barcode     *string
	Image       *Image
}

// UpdateInput holds optional changes. An empty Barcode clears it.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
	Barcode     *string
	Image       *Image
}

// Service exposes catalog reads and inventory management.
type Service interface {
	List(ctx context.Context, query string) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	ResolveByCode(ctx context.Context, code string) (Resolution, error)
	Create(ctx context.Context, sessionID string, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, sessionID, id string, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, sessionID, id string) error
	Draft(ctx context.Context, sessionID string) (Draft, error)
}

type productStore interface {
	List(ctx context.Context, query string) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByBarcode(ctx context.Context, code string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

type barcodeSlot interface {
	Take(ctx context.Context, sessionID string) (string, bool, error)
}

// Deps wires the catalog service.
type Deps struct {
	Repo     productStore
	Files    storage.FileStore
	Tokens   session.DriveTokenSource
	Barcodes barcodeSlot
	Metrics  *metrics.CommitMetrics
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	repo     productStore
	files    storage.FileStore
	tokens   session.DriveTokenSource
	barcodes barcodeSlot
	metrics  *metrics.CommitMetrics
	logg     *logger.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewService constructs the catalog service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if deps.Files == nil {
		return nil, fmt.Errorf("file store required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("drive token source required")
	}
	if deps.Barcodes == nil {
		return nil, fmt.Errorf("scanned barcode slot required")
	}
	svc := &service{
		repo:     deps.Repo,
		files:    deps.Files,
		tokens:   deps.Tokens,
		barcodes: deps.Barcodes,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		loc:      deps.Location,
		now:      deps.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) List(ctx context.Context, query string) ([]models.Product, error) {
	products, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

// ResolveByCode looks up a product by exact barcode. It never touches the cart.
func (s *service) ResolveByCode(ctx context.Context, code string) (Resolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "code is required").
			WithDetails(map[string]string{"code": "required"})
	}
	product, err := s.repo.FindByBarcode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return Resolution{Found: false}, nil
		}
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup barcode")
	}
	return Resolution{Found: true, Product: product}, nil
}

// Create uploads the image first, then inserts the row. A failed insert removes the upload.
func (s *service) Create(ctx context.Context, sessionID string, input CreateInput) (*models.Product, error) {
	product := &models.Product{
		Name:     strings.TrimSpace(input.Name),
		Price:    input.Price,
		Quantity: defaultCreateQuantity,
		Barcode:  normalizeBarcode(input.Barcode),
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if input.Image == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required").
			WithDetails(map[string]string{"image": "required"})
	}

	err := s.metrics.Track(metrics.CommitProductCreate, func() error {
		token, err := s.accessToken(ctx, sessionID)
		if err != nil {
			return err
		}
		obj, err := s.publish(ctx, token, product, input.Image)
		if err != nil {
			return err
		}
		product.ImageURL = &obj.PublicURL

		if err := s.repo.Create(ctx, product); err != nil {
			s.discard(ctx, token, obj.FileID)
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID), "catalog.product_created")
	return product, nil
}

// Update applies partial changes. A new image is published before the row is written and
// the old file is removed only after the write succeeds.
func (s *service) Update(ctx context.Context, sessionID, id string, input UpdateInput) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(product, input)
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	err = s.metrics.Track(metrics.CommitProductUpdate, func() error {
		var token, uploaded string
		var previous *string
		if input.Image != nil {
			var err error
			if token, err = s.accessToken(ctx, sessionID); err != nil {
				return err
			}
			previous = product.ImageURL
			obj, err := s.publish(ctx, token, product, input.Image)
			if err != nil {
				return err
			}
			product.ImageURL = &obj.PublicURL
			uploaded = obj.FileID
		}
		if err := s.repo.Update(ctx, product); err != nil {
			if uploaded != "" {
				s.discard(ctx, token, uploaded)
			}
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		if previous != nil && *previous != "" {
			s.removeImage(ctx, token, *previous)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product image (best-effort) and then the row.
func (s *service) Delete(ctx context.Context, sessionID, id string) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.metrics.Track(metrics.CommitProductDelete, func() error {
		if product.ImageURL != nil && *product.ImageURL != "" {
			token, err := s.accessToken(ctx, sessionID)
			if err != nil {
				return err
			}
			s.removeImage(ctx, token, *product.ImageURL)
		}
		if err := s.repo.Delete(ctx, product.ID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		return nil
	})
}

// Draft consumes the barcode left by a failed scan.
func (s *service) Draft(ctx context.Context, sessionID string) (Draft, error) {
	code, _, err := s.barcodes.Take(ctx, sessionID)
	if err != nil {
		return Draft{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read scanned barcode")
	}
	return Draft{Barcode: code}, nil
}

func (s *service) accessToken(ctx context.Context, sessionID string) (string, error) {
	token, err := s.tokens.DriveToken(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNoDriveToken) {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in again")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load drive token")
	}
	return token, nil
}

func (s *service) publish(ctx context.Context, token string, product *models.Product, img *Image) (storage.Object, error) {
	name := storage.ProductImageName(s.now().In(s.loc), product.Name, product.Price, img.Ext)
	obj, err := s.files.Publish(ctx, token, storage.Upload{Name: name, MimeType: img.MimeType, Body: img.Body})
	if err != nil {
		if errors.Is(err, storage.ErrMissingAccessToken) {
			return storage.Object{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in again")
		}
		return storage.Object{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload product image")
	}
	return obj, nil
}

func (s *service) removeImage(ctx context.Context, token, imageURL string) {
	fileID, err := storage.FileIDFromURL(imageURL)
	if err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "image_url", imageURL), "catalog.image_url_unparsed", err)
		return
	}
	s.discard(ctx, token, fileID)
}

func (s *service) discard(ctx context.Context, token, fileID string) {
	if err := s.files.Delete(ctx, token, fileID); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "file_id", fileID), "catalog.image_delete_failed", err)
	}
}

func applyUpdate(product *models.Product, input UpdateInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.Barcode != nil {
		product.Barcode = normalizeBarcode(input.Barcode)
	}
}

func validateProduct(p *models.Product) error {
	fields := map[string]string{}
	if utf8.RuneCountInString(p.Name) < 2 {
		fields["name"] = "must be at least 2 characters"
	}
	if p.Price.IsNegative() {
		fields["price"] = "must be zero or greater"
	}
	if p.Quantity < 0 {
		fields["quantity"] = "must be zero or greater"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(fields)
	}
	return nil
}

func normalizeBarcode(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

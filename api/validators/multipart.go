package validators

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
)

// UploadedImage is an image part whose type was sniffed from its content.
type UploadedImage struct {
	MimeType string
	Ext      string
	Body     io.Reader
	Size     int64
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ParseMultipart parses a multipart form capped at maxBytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.New(pkgerrors.CodeValidation, "upload too large").WithDetails(map[string]any{"max_bytes": maxBytes})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormImage reads an optional image part. A missing part returns nil.
func FormImage(r *http.Request, field string) (*UploadedImage, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return readImage(files[0], field)
}

func readImage(header *multipart.FileHeader, field string) (*UploadedImage, error) {
	file, err := header.Open()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload").WithDetails(map[string]any{"field": field})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload").WithDetails(map[string]any{"field": field})
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload is empty").WithDetails(map[string]any{"field": field})
	}

	detected := mimetype.Detect(data)
	mime := strings.SplitN(detected.String(), ";", 2)[0]
	ext, ok := allowedImageTypes[mime]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported image type").WithDetails(map[string]any{"field": field, "mime_type": mime})
	}
	return &UploadedImage{
		MimeType: mime,
		Ext:      ext,
		Body:     bytes.NewReader(data),
		Size:     int64(len(data)),
	}, nil
}

// FormString returns the trimmed value and whether the field was sent.
func FormString(r *http.Request, field string, maxLen int) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return "", false
	}
	return SanitizeString(values[0], maxLen), true
}

// FormDecimal parses an optional decimal field.
func FormDecimal(r *http.Request, field string) (*decimal.Decimal, error) {
	raw, ok := FormString(r, field, 64)
	if !ok || raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "must be a decimal number").WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}

// FormInt parses an optional integer field.
func FormInt(r *http.Request, field string) (*int, error) {
	raw, ok := FormString(r, field, 32)
	if !ok || raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "must be an integer").WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}

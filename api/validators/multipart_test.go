package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/fairshop/fairpos-backend/pkg/errors"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}

func multipartRequest(t *testing.T, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, "upload.bin")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFormImageSniffsContent(t *testing.T) {
	req := multipartRequest(t, map[string]string{"name": "Tea"}, "image", pngHeader)
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))

	img, err := FormImage(req, "image")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, ".png", img.Ext)
	assert.Equal(t, int64(len(pngHeader)), img.Size)
}

func TestFormImageRejectsNonImage(t *testing.T) {
	req := multipartRequest(t, nil, "image", []byte("plain text, not a picture"))
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))

	_, err := FormImage(req, "image")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFormImageMissingIsNil(t *testing.T) {
	req := multipartRequest(t, map[string]string{"name": "Tea"}, "", nil)
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))

	img, err := FormImage(req, "image")
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestParseMultipartEnforcesLimit(t *testing.T) {
	req := multipartRequest(t, nil, "image", bytes.Repeat([]byte{0xff}, 4096))
	err := ParseMultipart(httptest.NewRecorder(), req, 512)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFormNumbers(t *testing.T) {
	req := multipartRequest(t, map[string]string{"price": "2,50", "quantity": "7", "bad": "x"}, "", nil)
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))

	price, err := FormDecimal(req, "price")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "2.5", price.String())

	qty, err := FormInt(req, "quantity")
	require.NoError(t, err)
	require.NotNil(t, qty)
	assert.Equal(t, 7, *qty)

	missing, err := FormInt(req, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = FormInt(req, "bad")
	assert.Error(t, err)
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imghash/api"
	"imghash/api/handler"
	"imghash/internal/database"
	"imghash/internal/imagehash"
	"imghash/internal/imageprocessing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newHandler(t *testing.T) *handler.Handler {
	t.Helper()
	hasher, err := imageprocessing.NewHasher(imagehash.DefaultConfig(imagehash.Perceptual), imageprocessing.ResizeImaging)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	return &handler.Handler{
		DB:       database.NewImageDatabase(hasher, database.Options{Logger: logger}),
		ImageDir: t.TempDir(),
		Log:      logger,
	}
}

func TestHandler(t *testing.T) {
	t.Run("TestAddImageHandler", func(t *testing.T) {
		h := newHandler(t)

		resp := upload(t, h.AddImageHandler, "/admin/add", "test.png", createTestImage(), nil)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "image added successfully")
		assert.Equal(t, 1, h.DB.Len())
	})

	t.Run("TestDuplicateImage", func(t *testing.T) {
		h := newHandler(t)
		addImage(t, h, "duplicate_test.png")

		resp := upload(t, h.AddImageHandler, "/admin/add", "duplicate_test.png", createTestImage(), nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "already exists")
	})

	t.Run("TestUnsupportedExtension", func(t *testing.T) {
		h := newHandler(t)

		resp := upload(t, h.AddImageHandler, "/admin/add", "notes.txt", createTestImage(), nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "Unsupported file format")
	})

	t.Run("TestMissingImage", func(t *testing.T) {
		h := newHandler(t)

		resp := postForm(t, h.RecognizeHandler, "/recognize", url.Values{"threshold": {"90"}})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "No image file found")
	})

	t.Run("TestHashHandler", func(t *testing.T) {
		h := newHandler(t)

		resp := upload(t, h.HashHandler, "/hash", "test.png", createTestImage(), nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var body handler.HashResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "perceptual", body.Algorithm)
		assert.Equal(t, 8, body.Width)
		assert.Len(t, body.Hash, 16)
		assert.Equal(t, "8x8:"+body.Hash, body.Shaped)

		expected, err := imageprocessing.NewHasher(imagehash.DefaultConfig(imagehash.Perceptual), imageprocessing.ResizeImaging)
		require.NoError(t, err)
		m, err := expected.HashImage(createTestImage())
		require.NoError(t, err)
		assert.Equal(t, m.String(), body.Shaped)
	})

	t.Run("TestHashHandlerCustomConfig", func(t *testing.T) {
		h := newHandler(t)

		resp := upload(t, h.HashHandler, "/hash", "test.png", createTestImage(), map[string]string{
			"algorithm": "dhash",
			"width":     "5",
			"height":    "3",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var body handler.HashResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "difference", body.Algorithm)
		assert.Equal(t, 5, body.Width)
		assert.Equal(t, 3, body.Height)
		assert.Len(t, body.Hash, 4)
	})

	t.Run("TestHashHandlerInvalidConfig", func(t *testing.T) {
		h := newHandler(t)

		resp := upload(t, h.HashHandler, "/hash", "test.png", createTestImage(), map[string]string{"width": "0"})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "invalid configuration")
	})

	t.Run("TestHashHandlerSizeLimit", func(t *testing.T) {
		h := newHandler(t)
		h.MaxHashSize = 16

		for _, fields := range []map[string]string{
			{"algorithm": "average", "width": "50000", "height": "50000"},
			{"algorithm": "perceptual", "width": "512", "factor": "4"},
			{"algorithm": "perceptual", "width": "16", "height": "16", "factor": "8"},
		} {
			resp := upload(t, h.HashHandler, "/hash", "test.png", createTestImage(), fields)
			assert.Equal(t, http.StatusBadRequest, resp.Code, "%v", fields)
			assert.Contains(t, resp.Body.String(), "exceeds", "%v", fields)
		}

		resp := upload(t, h.HashHandler, "/hash", "test.png", createTestImage(), map[string]string{
			"algorithm": "average", "width": "16", "height": "16",
		})
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("TestCompareHandler", func(t *testing.T) {
		h := newHandler(t)

		resp := postForm(t, h.CompareHandler, "/compare", url.Values{
			"hash1": {"8x8:0000000000000000"},
			"hash2": {"8x8:000000000000000f"},
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var body handler.CompareResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, 4, body.Distance)
		assert.InDelta(t, 93.75, body.Similarity, 1e-9)
		assert.True(t, body.Match)
	})

	t.Run("TestCompareHandlerErrors", func(t *testing.T) {
		h := newHandler(t)

		resp := postForm(t, h.CompareHandler, "/compare", url.Values{
			"hash1": {"8x8:0000000000000000"},
			"hash2": {"4x4:0000"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "shapes do not match")

		resp = postForm(t, h.CompareHandler, "/compare", url.Values{
			"hash1": {"8x8:zz00000000000000"},
			"hash2": {"8x8:0000000000000000"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "hash1")
	})

	t.Run("TestRecognizeHandler", func(t *testing.T) {
		h := newHandler(t)
		addImage(t, h, "reference.png")

		resp := upload(t, h.RecognizeHandler, "/recognize", "query.png", createTestImage(), nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var body handler.RecognizeResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "OK", body.Result)
		assert.Zero(t, body.Distance)
		assert.InDelta(t, 100.0, body.Similarity, 1e-9)
		assert.True(t, strings.HasSuffix(body.MatchedImage, "_reference.png"))
	})

	t.Run("TestRecognizeHandlerEmptyDatabase", func(t *testing.T) {
		h := newHandler(t)

		resp := upload(t, h.RecognizeHandler, "/recognize", "query.png", createTestImage(), nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"result":"NOT OK"`)
	})

	t.Run("TestDeleteImageHandler", func(t *testing.T) {
		h := newHandler(t)
		resp := upload(t, h.AddImageHandler, "/admin/add", "gone.png", createTestImage(), nil)
		require.Equal(t, http.StatusOK, resp.Code)
		var added map[string]string
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &added))
		stored := added["filename"]
		require.FileExists(t, filepath.Join(h.ImageDir, stored))

		resp = postForm(t, h.DeleteImageHandler, "/admin/delete", url.Values{"filename": {stored}})
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "image deleted successfully")
		assert.Zero(t, h.DB.Len())
		assert.NoFileExists(t, filepath.Join(h.ImageDir, stored))

		resp = postForm(t, h.DeleteImageHandler, "/admin/delete", url.Values{"filename": {stored}})
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = postForm(t, h.DeleteImageHandler, "/admin/delete", url.Values{})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("TestListImagesHandler", func(t *testing.T) {
		h := newHandler(t)
		addImage(t, h, "listed.png")

		resp := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(resp)
		ctx.Request, _ = http.NewRequest("GET", "/admin/images", nil)
		h.ListImagesHandler(ctx)

		require.Equal(t, http.StatusOK, resp.Code)
		var images []database.ImageInfo
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &images))
		require.Len(t, images, 1)
		assert.Empty(t, images[0].Thumbnail)
		assert.Regexp(t, `^8x8:[0-9a-f]{16}$`, images[0].Hash)
	})
}

func TestRouter(t *testing.T) {
	h := newHandler(t)
	r := api.Router(h, []string{"*"})

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/admin/hello", nil)
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Hello, world")
}

// Test helpers
func createTestImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x + y) % 256),
				G: uint8((x * y) % 256),
				B: uint8((x - y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func upload(t *testing.T, fn gin.HandlerFunc, target, filename string, img image.Image, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	require.NoError(t, imaging.Encode(part, img, imaging.PNG))
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()

	ctx, _ := gin.CreateTestContext(resp)
	ctx.Request = req
	fn(ctx)
	return resp
}

func postForm(t *testing.T, fn gin.HandlerFunc, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, writer.WriteField(k, v))
		}
	}
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()

	ctx, _ := gin.CreateTestContext(resp)
	ctx.Request = req
	fn(ctx)
	return resp
}

func addImage(t *testing.T, h *handler.Handler, filename string) {
	t.Helper()
	resp := upload(t, h.AddImageHandler, "/admin/add", filename, createTestImage(), nil)
	assert.Equal(t, http.StatusOK, resp.Code, "Initial image add failed")
}

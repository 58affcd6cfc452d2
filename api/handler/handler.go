package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"imghash/internal/database"
	"imghash/internal/imagehash"
	"imghash/internal/imageprocessing"
)

const (
	defaultMaxUpload   = 10 << 20
	defaultThreshold   = 85.0
	defaultMaxHashSize = 64
)

type Handler struct {
	DB             *database.ImageDatabase
	ImageDir       string
	MaxUploadBytes int64
	// MaxHashSize bounds the width and height a request may ask for.
	MaxHashSize int
	// Threshold is the default match similarity in percent.
	Threshold float64
	// Converter resizes uploads hashed with a non-default configuration.
	Converter imageprocessing.Converter
	Log       logrus.FieldLogger
}

// RecognizeResponse is returned by /recognize.
type RecognizeResponse struct {
	Result           string  `json:"result"`
	Similarity       float64 `json:"similarity"`
	Distance         int     `json:"distance"`
	MatchedImage     string  `json:"matched_image,omitempty"`
	Hash             string  `json:"hash"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// HashResponse is returned by /hash.
type HashResponse struct {
	Algorithm        string `json:"algorithm"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	Hash             string `json:"hash"`
	Shaped           string `json:"shaped"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// CompareResponse is returned by /compare.
type CompareResponse struct {
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
	Match      bool    `json:"match"`
}

func (h *Handler) logger() logrus.FieldLogger {
	if h.Log == nil {
		return logrus.StandardLogger()
	}
	return h.Log
}

func (h *Handler) maxUpload() int64 {
	if h.MaxUploadBytes <= 0 {
		return defaultMaxUpload
	}
	return h.MaxUploadBytes
}

func (h *Handler) maxHashSize() int {
	if h.MaxHashSize <= 0 {
		return defaultMaxHashSize
	}
	return h.MaxHashSize
}

// threshold reads the optional "threshold" form value, falling back to the
// handler default when it is missing or outside 0-100.
func (h *Handler) threshold(c *gin.Context) float64 {
	threshold := h.Threshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	if s := c.PostForm("threshold"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err == nil && parsed >= 0 && parsed <= 100 {
			threshold = parsed
		}
	}
	return threshold
}

// readUpload returns the bytes of the multipart file field, writing the
// error response itself when it fails.
func (h *Handler) readUpload(c *gin.Context, field string) (data []byte, filename string, ok bool) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file found"})
		return nil, "", false
	}
	defer file.Close()

	if header.Size > h.maxUpload() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File size exceeds %dMB limit", h.maxUpload()>>20)})
		return nil, "", false
	}

	data, err = io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

// hashConfig applies the optional form overrides to the database config.
func (h *Handler) hashConfig(c *gin.Context) (imagehash.Config, error) {
	cfg := h.DB.Config()
	if s := c.PostForm("algorithm"); s != "" {
		alg, err := imagehash.ParseAlgorithm(s)
		if err != nil {
			return cfg, err
		}
		if alg != cfg.Algorithm {
			cfg = imagehash.DefaultConfig(alg)
			cfg.Width, cfg.Height, cfg.ColorSpace = h.DB.Config().Width, h.DB.Config().Height, h.DB.Config().ColorSpace
		}
	}
	for field, dst := range map[string]*int{"width": &cfg.Width, "height": &cfg.Height, "factor": &cfg.Factor} {
		s := c.PostForm(field)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return cfg, errors.Wrapf(imagehash.ErrInvalidConfig, "%s %q", field, s)
		}
		*dst = v
	}
	if s := c.PostForm("color_space"); s != "" {
		cs, err := imagehash.ParseColorSpace(s)
		if err != nil {
			return cfg, err
		}
		cfg.ColorSpace = cs
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, cfg.CheckLimit(h.maxHashSize())
}

// @Summary Hash image
// @Description Compute the perceptual hash of an uploaded image
// @Tags Hashing
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file to hash"
// @Param algorithm formData string false "average, median, difference or perceptual"
// @Param width formData int false "Hash width"
// @Param height formData int false "Hash height"
// @Param factor formData int false "Perceptual upscale factor"
// @Param color_space formData string false "rec601 or rec709"
// @Success 200 {object} HashResponse
// @Failure 400 {object} map[string]string
// @Router /hash [post]
func (h *Handler) HashHandler(c *gin.Context) {
	startTime := time.Now()

	cfg, err := h.hashConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, _, ok := h.readUpload(c, "image")
	if !ok {
		return
	}

	var m imagehash.BitMatrix
	if cfg == h.DB.Config() {
		m, err = h.DB.HashBytes(data)
	} else {
		m, err = (&imageprocessing.Hasher{Config: cfg, Converter: h.Converter}).HashBytes(data)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format"})
		return
	}

	hex, _ := imagehash.Encode(m)
	c.JSON(http.StatusOK, HashResponse{
		Algorithm:        cfg.Algorithm.String(),
		Width:            m.Width(),
		Height:           m.Height(),
		Hash:             hex,
		Shaped:           m.String(),
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// @Summary Compare hashes
// @Description Hamming distance between two shaped hashes ("WxH:hex")
// @Tags Hashing
// @Accept multipart/form-data
// @Produce json
// @Param hash1 formData string true "First shaped hash"
// @Param hash2 formData string true "Second shaped hash"
// @Param threshold formData number false "Similarity threshold (0-100)"
// @Success 200 {object} CompareResponse
// @Failure 400 {object} map[string]string
// @Router /compare [post]
func (h *Handler) CompareHandler(c *gin.Context) {
	a, err := imagehash.ParseShaped(c.PostForm("hash1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hash1: " + err.Error()})
		return
	}
	b, err := imagehash.ParseShaped(c.PostForm("hash2"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hash2: " + err.Error()})
		return
	}

	distance, err := imagehash.Distance(a, b)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	similarity, _ := imagehash.Similarity(a, b)

	c.JSON(http.StatusOK, CompareResponse{
		Distance:   distance,
		Similarity: similarity,
		Match:      similarity >= h.threshold(c),
	})
}

// @Summary Recognize image
// @Description Compare uploaded image against database using hashing
// @Tags Image Recognition
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file to check"
// @Param threshold formData number false "Similarity threshold (0-100)"
// @Success 200 {object} RecognizeResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /recognize [post]
func (h *Handler) RecognizeHandler(c *gin.Context) {
	startTime := time.Now()

	data, _, ok := h.readUpload(c, "image")
	if !ok {
		return
	}
	threshold := h.threshold(c)

	m, err := h.DB.HashBytes(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format"})
		return
	}

	match, found, err := h.DB.FindMatch(m)
	if err != nil {
		h.logger().WithError(err).Error("Matching failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not compare image"})
		return
	}

	response := RecognizeResponse{
		Result:       "NOT OK",
		Hash:         m.String(),
		Similarity:   match.Similarity,
		Distance:     match.Distance,
		MatchedImage: match.Filename,
	}
	if found && match.Similarity >= threshold {
		response.Result = "OK"
	}
	response.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	h.logger().WithFields(logrus.Fields{
		"result":   response.Result,
		"matched":  response.MatchedImage,
		"distance": response.Distance,
	}).Infof("Recognize, similarity %.2f%% threshold %.2f%%", response.Similarity, threshold)
	c.JSON(http.StatusOK, response)
}

// @Summary Add new image
// @Description Add reference image to database
// @Tags Image Database Management
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file to upload"
// @Param name formData string false "Custom image name"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/add [post]
func (h *Handler) AddImageHandler(c *gin.Context) {
	data, original, ok := h.readUpload(c, "image")
	if !ok {
		return
	}

	ext := strings.ToLower(filepath.Ext(original))
	if !imageprocessing.IsImageFile(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file format. Please upload a valid image."})
		return
	}
	filename := filepath.Base(original)
	if customName := c.PostForm("name"); customName != "" {
		filename = filepath.Base(customName) + ext
	}
	uniqueFilename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filename)
	savePath := filepath.Join(h.ImageDir, uniqueFilename)

	img, err := imageprocessing.Decode(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format"})
		return
	}

	if err := imaging.Save(img, savePath); err != nil {
		h.logger().WithError(err).Errorf("Error saving image to %s", savePath)
		if os.IsPermission(err) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Permission denied when saving image. Check container volume permissions."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save image"})
		}
		return
	}

	info, err := h.DB.AddImage(img, uniqueFilename)
	if err != nil {
		os.Remove(savePath)
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "image added successfully",
		"filename": uniqueFilename,
		"hash":     info.Hash,
	})
}

// @Summary Delete image
// @Description Remove a reference image from the database and the image directory
// @Tags Image Database Management
// @Accept multipart/form-data
// @Produce json
// @Param filename formData string true "Stored filename, as returned by /admin/add"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/delete [post]
func (h *Handler) DeleteImageHandler(c *gin.Context) {
	filename := filepath.Base(c.PostForm("filename"))
	if filename == "." || filename == string(filepath.Separator) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No filename given"})
		return
	}

	if err := h.DB.RemoveImage(filename); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			h.logger().WithError(err).Errorf("Error removing %s", filename)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not remove image"})
		}
		return
	}

	if err := os.Remove(filepath.Join(h.ImageDir, filename)); err != nil && !os.IsNotExist(err) {
		h.logger().WithError(err).Warnf("Could not delete file %s", filename)
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted successfully", "filename": filename})
}

// @Summary List images
// @Description List reference images in the database
// @Tags Image Database Management
// @Produce json
// @Param thumbnails query bool false "Include base64 thumbnails"
// @Success 200 {array} database.ImageInfo
// @Router /admin/images [get]
func (h *Handler) ListImagesHandler(c *gin.Context) {
	images := h.DB.ListImages()
	if c.Query("thumbnails") != "true" {
		for i := range images {
			images[i].Thumbnail = ""
		}
	}
	c.JSON(http.StatusOK, images)
}

// @Summary Hello endpoint
// @Description Test connection endpoint
// @Tags Image Database Management
// @Produce json
// @Success 200 {object} map[string]string
// @Router /admin/hello [get]
func (h *Handler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello, world", "images": h.DB.Len()})
}

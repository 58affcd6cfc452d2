// Package database provides image database management functionality
package database

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"imghash/internal/imagehash"
	"imghash/internal/imageprocessing"
	"imghash/internal/storage"
)

var (
	// ErrDuplicate is returned by AddImage when an identical hash is already stored.
	ErrDuplicate = errors.New("image already exists")
	// ErrNotFound is returned by RemoveImage for an unknown filename.
	ErrNotFound = errors.New("image not found")
)

// ImageInfo represents metadata about an image in the database
type ImageInfo struct {
	Filename  string    `json:"filename"`
	Hash      string    `json:"hash"`
	AddedAt   time.Time `json:"added_at"`
	Thumbnail string    `json:"thumbnail,omitempty"`

	matrix imagehash.BitMatrix
}

// Match is the closest stored image to a query hash.
type Match struct {
	Filename   string
	Hash       string
	Distance   int
	Similarity float64
}

// Store is the persistence the database writes through to.
type Store interface {
	Save(r storage.Record) error
	List(algorithm string) ([]storage.Record, error)
	Delete(filename, algorithm string) error
}

// Options tunes an ImageDatabase. Zero values pick the defaults.
type Options struct {
	Workers       int
	ThumbnailSize int
	ThumbnailMode imageprocessing.ThumbnailMode
	CacheTTL      time.Duration
	CacheCleanup  time.Duration
	Store         Store
	Logger        logrus.FieldLogger
}

// ImageDatabase manages a collection of reference images and their hashes.
// All of them are hashed with the same configuration.
type ImageDatabase struct {
	hasher        *imageprocessing.Hasher
	images        map[string]ImageInfo
	mutex         sync.RWMutex
	cache         *cache.Cache
	store         Store
	workers       int
	thumbnailSize int
	thumbnailMode imageprocessing.ThumbnailMode
	log           logrus.FieldLogger
}

// NewImageDatabase creates a new image database
func NewImageDatabase(hasher *imageprocessing.Hasher, opts Options) *ImageDatabase {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.ThumbnailSize < 1 {
		opts.ThumbnailSize = 100
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheCleanup == 0 {
		opts.CacheCleanup = 10 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &ImageDatabase{
		hasher:        hasher,
		images:        make(map[string]ImageInfo),
		cache:         cache.New(opts.CacheTTL, opts.CacheCleanup),
		store:         opts.Store,
		workers:       opts.Workers,
		thumbnailSize: opts.ThumbnailSize,
		thumbnailMode: opts.ThumbnailMode,
		log:           opts.Logger.WithField("algorithm", hasher.Config.Algorithm.String()),
	}
}

// Config returns the hash configuration every stored image was hashed with.
func (db *ImageDatabase) Config() imagehash.Config {
	return db.hasher.Config
}

// Restore loads previously stored records. Records whose hash no longer
// parses, or whose shape differs from the current configuration, are skipped.
func (db *ImageDatabase) Restore() error {
	if db.store == nil {
		return nil
	}
	records, err := db.store.List(db.hasher.Config.Algorithm.String())
	if err != nil {
		return err
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()
	for _, r := range records {
		m, err := imagehash.ParseShaped(r.Hash)
		if err != nil {
			db.log.WithField("filename", r.Filename).WithError(err).Warn("Skipping stored record")
			continue
		}
		if m.Width() != db.hasher.Config.Width || m.Height() != db.hasher.Config.Height {
			db.log.WithField("filename", r.Filename).Warnf("Skipping stored record with size %dx%d", m.Width(), m.Height())
			continue
		}
		db.images[r.Filename] = ImageInfo{
			Filename:  r.Filename,
			Hash:      r.Hash,
			AddedAt:   r.AddedAt,
			Thumbnail: r.Thumbnail,
			matrix:    m,
		}
	}
	db.log.Infof("Restored %d images from storage", len(db.images))
	return nil
}

// LoadImages hashes every supported image in imageDir that is not already
// known, using a bounded number of workers.
func (db *ImageDatabase) LoadImages(imageDir string) error {
	if _, err := os.Stat(imageDir); os.IsNotExist(err) {
		return errors.Errorf("images directory does not exist: %s", imageDir)
	}

	files, err := os.ReadDir(imageDir)
	if err != nil {
		return errors.Wrap(err, "could not read directory")
	}

	var wg sync.WaitGroup
	threadLimit := make(chan struct{}, db.workers)

	for _, file := range files {
		if file.IsDir() || !imageprocessing.IsImageFile(file.Name()) {
			continue
		}
		if db.has(file.Name()) {
			continue
		}

		wg.Add(1)
		threadLimit <- struct{}{}

		go func(fileName string) {
			defer wg.Done()
			defer func() { <-threadLimit }()

			path := filepath.Join(imageDir, fileName)
			img, err := imageprocessing.Open(path)
			if err != nil {
				db.log.WithField("filename", fileName).WithError(err).Warn("Could not open file")
				return
			}

			if _, err := db.AddImage(img, fileName); err != nil {
				db.log.WithField("filename", fileName).WithError(err).Warn("Could not add image")
				return
			}
			db.log.WithField("filename", fileName).Debug("Loaded image")
		}(file.Name())
	}

	wg.Wait()
	db.log.Infof("Loaded %d images into the database", db.Len())
	return nil
}

// HashBytes hashes an encoded upload. Results are cached by content
// digest, so the same bytes are only decoded once per cache lifetime.
func (db *ImageDatabase) HashBytes(data []byte) (imagehash.BitMatrix, error) {
	key := imageprocessing.ContentDigest(data)
	if cached, ok := db.cache.Get(key); ok {
		return cached.(imagehash.BitMatrix), nil
	}

	m, err := db.hasher.HashBytes(data)
	if err != nil {
		return imagehash.BitMatrix{}, err
	}
	db.cache.SetDefault(key, m)
	return m, nil
}

// AddImage adds a new image to the database
func (db *ImageDatabase) AddImage(img image.Image, filename string) (ImageInfo, error) {
	m, err := db.hasher.HashImage(img)
	if err != nil {
		return ImageInfo{}, err
	}
	shaped, err := imagehash.FormatShaped(m)
	if err != nil {
		return ImageInfo{}, err
	}

	info := ImageInfo{
		Filename:  filename,
		Hash:      shaped,
		AddedAt:   time.Now(),
		Thumbnail: imageprocessing.GenerateThumbnail(img, db.thumbnailSize, db.thumbnailMode),
		matrix:    m,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	// Check if the image already exists in the database
	for _, existing := range db.images {
		if existing.matrix.Equal(m) {
			return ImageInfo{}, errors.Wrapf(ErrDuplicate, "stored as %s", existing.Filename)
		}
	}

	if db.store != nil {
		err := db.store.Save(storage.Record{
			Filename:  info.Filename,
			Algorithm: db.hasher.Config.Algorithm.String(),
			Hash:      info.Hash,
			Thumbnail: info.Thumbnail,
			AddedAt:   info.AddedAt,
		})
		if err != nil {
			return ImageInfo{}, err
		}
	}

	db.images[filename] = info
	return info, nil
}

// RemoveImage drops filename from the database and from the store.
func (db *ImageDatabase) RemoveImage(filename string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, ok := db.images[filename]; !ok {
		return errors.Wrap(ErrNotFound, filename)
	}
	if db.store != nil {
		if err := db.store.Delete(filename, db.hasher.Config.Algorithm.String()); err != nil {
			return err
		}
	}
	delete(db.images, filename)
	db.log.WithField("filename", filename).Info("Removed image")
	return nil
}

// FindMatch returns the stored image closest to hash. The second result is
// false when the database is empty.
func (db *ImageDatabase) FindMatch(hash imagehash.BitMatrix) (Match, bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	var best Match
	found := false
	for _, info := range db.images {
		distance, err := imagehash.Distance(hash, info.matrix)
		if err != nil {
			return Match{}, false, err
		}
		// Ties go to the lexically first filename so results are stable.
		if !found || distance < best.Distance || (distance == best.Distance && info.Filename < best.Filename) {
			best = Match{Filename: info.Filename, Hash: info.Hash, Distance: distance}
			found = true
		}
	}
	if !found {
		return Match{}, false, nil
	}

	best.Similarity = 100.0 - float64(best.Distance)/float64(hash.Len())*100.0
	db.log.WithFields(logrus.Fields{
		"filename": best.Filename,
		"distance": best.Distance,
	}).Debugf("Best match, similarity %.2f%%", best.Similarity)
	return best, true, nil
}

// ListImages returns all images ordered by filename.
func (db *ImageDatabase) ListImages() []ImageInfo {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	images := make([]ImageInfo, 0, len(db.images))
	for _, info := range db.images {
		images = append(images, info)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Filename < images[j].Filename })
	return images
}

// Len returns the number of stored images.
func (db *ImageDatabase) Len() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return len(db.images)
}

func (db *ImageDatabase) has(filename string) bool {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	_, ok := db.images[filename]
	return ok
}

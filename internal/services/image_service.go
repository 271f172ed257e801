package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/storage"
	"github.com/sirupsen/logrus"
)

const (
	jpegQuality = 85
	// maxSourcePixels caps decoded uploads at roughly a 40 megapixel photo
	maxSourcePixels = 40_000_000
)

// ImageService normalises uploaded photos and stores them
type ImageService struct {
	store  storage.ObjectStore
	maxPx  int
	logger *logrus.Logger
}

// NewImageService creates a new ImageService
func NewImageService(store storage.ObjectStore, maxPx int, logger *logrus.Logger) *ImageService {
	if maxPx <= 0 {
		maxPx = 1600
	}
	return &ImageService{store: store, maxPx: maxPx, logger: logger}
}

// Normalize decodes an image (honouring EXIF orientation), shrinks it to fit
// maxPx on its longest side and re-encodes it as JPEG.
// Sources over maxSourcePixels are rejected from their header before decoding.
func (s *ImageService) Normalize(r io.Reader) ([]byte, image.Rectangle, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, image.Rectangle{}, models.NewValidationError("image", "unsupported or corrupt image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, image.Rectangle{}, models.NewValidationError("image",
			fmt.Sprintf("image dimensions %dx%d exceed the %d megapixel limit", cfg.Width, cfg.Height, maxSourcePixels/1_000_000))
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, image.Rectangle{}, models.NewValidationError("image", "unsupported or corrupt image")
	}

	bounds := img.Bounds()
	if bounds.Dx() > s.maxPx || bounds.Dy() > s.maxPx {
		img = imaging.Fit(img, s.maxPx, s.maxPx, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), img.Bounds(), nil
}

// Upload normalises r and stores it under prefix, returning the public URL
func (s *ImageService) Upload(ctx context.Context, prefix string, r io.Reader) (string, error) {
	data, bounds, err := s.Normalize(r)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.jpg", prefix, uuid.NewString())
	url, err := s.store.Put(ctx, key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"key":    key,
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
		"bytes":  len(data),
	}).Info("Image stored")

	return url, nil
}

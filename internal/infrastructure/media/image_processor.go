// Package media provides image processing and transcription for the funnel's
// video and hero assets.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// HeroWidths are the responsive widths of the hero image set.
var HeroWidths = []int{480, 768, 1024, 1200}

const (
	// FallbackWidth is the width of the jpg served to browsers without webp.
	FallbackWidth = 1200
	WebPQuality   = 85
	JPEGQuality   = 85
)

// ErrUnsupportedImage is returned for uploads that are not jpeg, png or webp.
var ErrUnsupportedImage = errors.New("unsupported image format")

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Variant is one file of a processed image set.
type Variant struct {
	Width  int    `json:"width"`
	Format string `json:"format"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
}

// ImageProcessor writes processed images below basePath/images.
type ImageProcessor struct {
	basePath string
	logger   *logging.ChanneledLogger
}

// NewImageProcessor creates a new ImageProcessor instance
func NewImageProcessor(basePath string, logger *logging.ChanneledLogger) *ImageProcessor {
	return &ImageProcessor{basePath: basePath, logger: logger}
}

// Dir is the directory the processed images are written to.
func (p *ImageProcessor) Dir() string {
	return filepath.Join(p.basePath, "images")
}

// DetectImageType sniffs data and returns its MIME type, or
// ErrUnsupportedImage when it is not an accepted upload format.
func DetectImageType(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	for m := mtype; m != nil; m = m.Parent() {
		if allowedImageTypes[m.String()] {
			return m.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mtype.String())
}

// ProcessHero decodes an uploaded hero image and writes the responsive set:
// one webp per HeroWidths entry plus a jpg fallback. Images are never
// upscaled. On failure, files written so far are removed.
func (p *ImageProcessor) ProcessHero(data []byte) ([]Variant, error) {
	start := time.Now()
	if len(data) == 0 {
		return nil, errors.New("empty image upload")
	}

	mtype, err := DetectImageType(data)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", mtype, err)
	}

	dir := p.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	p.logger.Media().Debug("Processing hero image", "mime", mtype, "size", humanize.Bytes(uint64(len(data))), "bounds", img.Bounds().String())

	var written []string
	cleanup := func() {
		for _, path := range written {
			os.Remove(path)
		}
	}

	variants := make([]Variant, 0, len(HeroWidths)+1)
	for _, width := range HeroWidths {
		name := fmt.Sprintf("hero-%dw.webp", width)
		path := filepath.Join(dir, name)
		if err := webp.Save(path, fitWidth(img, width), &webp.Options{Quality: WebPQuality}); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to save %s: %w", name, err)
		}
		written = append(written, path)

		v, err := p.variant(path, width, "webp")
		if err != nil {
			cleanup()
			return nil, err
		}
		variants = append(variants, v)
	}

	name := fmt.Sprintf("hero-%dw.jpg", FallbackWidth)
	path := filepath.Join(dir, name)
	if err := imaging.Save(fitWidth(img, FallbackWidth), path, imaging.JPEGQuality(JPEGQuality)); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to save %s: %w", name, err)
	}
	written = append(written, path)
	v, err := p.variant(path, FallbackWidth, "jpg")
	if err != nil {
		cleanup()
		return nil, err
	}
	variants = append(variants, v)

	var total int64
	for _, v := range variants {
		total += v.Size
	}
	p.logger.Media().Info("Hero image set written",
		"variants", len(variants),
		"input", humanize.Bytes(uint64(len(data))),
		"output", humanize.Bytes(uint64(total)),
		"duration", time.Since(start))

	return variants, nil
}

func (p *ImageProcessor) variant(path string, width int, format string) (Variant, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Variant{}, fmt.Errorf("file verification failed: %w", err)
	}
	url := "/media/images/" + filepath.Base(path)
	return Variant{Width: width, Format: format, URL: strings.ReplaceAll(url, "\\", "/"), Size: info.Size()}, nil
}

// fitWidth scales img down to width keeping the aspect ratio.
func fitWidth(img image.Image, width int) image.Image {
	if img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

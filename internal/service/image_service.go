package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot            = "media"
	DefaultImageMaxUploadSizeMB = 5
	DefaultImageMaxSize         = 1280
	WebPQuality                 = 80
	// PostImageDir is the directory under the media root holding post images.
	PostImageDir = "posts"
)

// UploadImageInput is a raw image file attached to a post form.
type UploadImageInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService normalises uploaded post images to WebP files under the media root.
type ImageService struct {
	mediaRoot          string
	maxUploadSizeBytes int64
	maxSize            int
}

func NewImageService(cfg *config.Config) *ImageService {
	s := &ImageService{
		mediaRoot:          DefaultMediaRoot,
		maxUploadSizeBytes: DefaultImageMaxUploadSizeMB << 20,
		maxSize:            DefaultImageMaxSize,
	}
	if cfg != nil {
		if cfg.MediaRoot != "" {
			s.mediaRoot = cfg.MediaRoot
		}
		if cfg.ImageMaxUpload > 0 {
			s.maxUploadSizeBytes = cfg.ImageMaxUploadBytes()
		}
		if cfg.ImageMaxSize > 0 {
			s.maxSize = cfg.ImageMaxSize
		}
	}
	return s
}

// MediaRoot is the directory served under /media/.
func (s *ImageService) MediaRoot() string {
	return s.mediaRoot
}

// Save validates, scales and stores an image and returns its path relative to the media root.
func (s *ImageService) Save(_ context.Context, in UploadImageInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewFieldError("image", "The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewFieldError("image", fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes>>20))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return "", models.NewFieldError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewFieldError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	encoded, err := encodeWebP(resizeToFit(decoded, s.maxSize, s.maxSize), WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	rel := filepath.ToSlash(filepath.Join(PostImageDir, uuid.NewString()+".webp"))
	if err := writeBytesToFile(filepath.Join(s.mediaRoot, filepath.FromSlash(rel)), encoded); err != nil {
		return "", models.NewInternalError(err)
	}
	return rel, nil
}

// Remove deletes a stored image; missing files are ignored.
func (s *ImageService) Remove(rel string) error {
	if rel == "" || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.mediaRoot, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"postline/internal/config"
	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/validation"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot            = "media"
	DefaultImageMaxUploadSizeMB = 10
	// PostImageDir is the media-relative directory for post images.
	PostImageDir = "posts"
	// PreviewDir holds downscaled WebP copies used in feeds.
	PreviewDir     = "posts/previews"
	PreviewMaxSize = 960
	WebPQuality    = 75
	// MaxImagePixels caps declared dimensions before anything is decoded.
	MaxImagePixels = 40_000_000

	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// StoredImage names the files written for an upload, relative to the media root.
type StoredImage struct {
	Name    string
	Preview string
}

// ImageService validates uploaded images and writes them under the media root.
type ImageService struct {
	mediaRoot          string
	maxUploadSizeBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	mediaRoot := DefaultMediaRoot
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.MediaRoot != "" {
			mediaRoot = cfg.MediaRoot
		}
		if cfg.ImageMaxUploadMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadMB
		}
	}

	return &ImageService{
		mediaRoot:          mediaRoot,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MediaRoot is the directory uploads are written to.
func (s *ImageService) MediaRoot() string {
	return s.mediaRoot
}

// Validate checks size, sniffed type and header of an upload without writing it.
func (s *ImageService) Validate(in *validation.ImageUpload) error {
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return imageFieldError(fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return imageFieldError(msgInvalidImage)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return imageFieldError(msgInvalidImage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return imageFieldError(msgInvalidImage)
	}
	return nil
}

// Save validates and stores the upload as posts/<name>. An existing file with
// the same name is never overwritten; a random suffix is added instead.
func (s *ImageService) Save(ctx context.Context, in *validation.ImageUpload) (*StoredImage, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	name, err := s.availableName(path.Join(PostImageDir, sanitizeFilename(in.Filename)))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(s.abs(name), in.Content); err != nil {
		return nil, models.NewInternalError(err)
	}

	stored := &StoredImage{Name: name}
	preview, err := s.writePreview(name, in.Content)
	if err != nil {
		// The original is enough to render the post.
		middleware.Logger.WarnContext(ctx, "image preview failed", "image", name, "error", err)
	} else {
		stored.Preview = preview
	}
	return stored, nil
}

// Remove deletes stored files; missing files are ignored. Callers check that
// no post still references them.
func (s *ImageService) Remove(img *StoredImage) {
	if img == nil {
		return
	}
	for _, name := range []string{img.Name, img.Preview} {
		if name != "" {
			_ = os.Remove(s.abs(name))
		}
	}
}

func (s *ImageService) abs(name string) string {
	return filepath.Join(s.mediaRoot, filepath.FromSlash(name))
}

func (s *ImageService) availableName(name string) (string, error) {
	if _, err := os.Stat(s.abs(name)); os.IsNotExist(err) {
		return name, nil
	} else if err != nil {
		return "", err
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < 10; i++ {
		candidate := fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:7], ext)
		if _, err := os.Stat(s.abs(candidate)); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s", name)
}

// previewName maps posts/<base>.<ext> to posts/previews/<base>.webp. Originals
// never share a name, so neither do previews.
func previewName(original string) string {
	base := path.Base(original)
	return path.Join(PreviewDir, strings.TrimSuffix(base, path.Ext(base))+".webp")
}

func (s *ImageService) writePreview(original string, content []byte) (string, error) {
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	encoded, err := encodeWebP(resizeToFit(decoded, PreviewMaxSize, PreviewMaxSize), WebPQuality)
	if err != nil {
		return "", err
	}
	name := previewName(original)
	if err := writeBytesToFile(s.abs(name), encoded); err != nil {
		return "", err
	}
	return name, nil
}

func imageFieldError(msg string) error {
	return models.NewFormError(map[string]string{"image": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "upload"
	}
	if len(name) > 100 {
		ext := path.Ext(name)
		name = name[:100-len(ext)] + ext
	}
	return name
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
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
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
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

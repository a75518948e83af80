package service

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"postline/internal/config"
	"postline/internal/models"
	"postline/internal/testutil"
	"postline/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_SaveWritesOriginalAndPreview(t *testing.T) {
	root := t.TempDir()
	svc := NewImageService(&config.Config{MediaRoot: root, ImageMaxUploadMB: 5})

	stored, err := svc.Save(context.Background(), &validation.ImageUpload{
		Filename: "holiday photo.png",
		Content:  testutil.PNGBytes(1200, 600),
	})
	require.NoError(t, err)
	assert.Equal(t, "posts/holiday_photo.png", stored.Name)
	require.NotEmpty(t, stored.Preview)
	assert.True(t, strings.HasPrefix(stored.Preview, PreviewDir+"/"))

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(stored.Preview)))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, PreviewMaxSize, cfg.Width)
	assert.Equal(t, PreviewMaxSize/2, cfg.Height)

	svc.Remove(stored)
	_, err = os.Stat(filepath.Join(root, "posts", "holiday_photo.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestImageService_Validate(t *testing.T) {
	svc := NewImageService(&config.Config{MediaRoot: t.TempDir(), ImageMaxUploadMB: 1})

	tests := []struct {
		name    string
		content []byte
		wantErr bool
	}{
		{"gif", testutil.SmallGIF, false},
		{"png", testutil.PNGBytes(4, 4), false},
		{"text", []byte("hello world"), true},
		{"truncated png", testutil.PNGBytes(4, 4)[:20], true},
		{"too large", make([]byte, 2*1024*1024), true},
		{"huge declared dimensions", testutil.PNGHeader(60000, 60000), true},
		{"just over pixel cap", testutil.PNGHeader(8000, 5001), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(&validation.ImageUpload{Filename: "f", Content: tt.content})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, models.FieldErrors(err), "image")
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"small.gif":           "small.gif",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\cat.jpg`: "cat.jpg",
		"my cat (1).png":      "my_cat_1_.png",
		"...":                 "upload",
		"":                    "upload",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

func TestResizeToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2000, 1000))
	out := resizeToFit(src, 960, 960)
	assert.Equal(t, 960, out.Bounds().Dx())
	assert.Equal(t, 480, out.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, resizeToFit(small, 960, 960))
}

func TestImageService_SaveRejectsHugeDeclaredDimensions(t *testing.T) {
	root := t.TempDir()
	svc := NewImageService(&config.Config{MediaRoot: root, ImageMaxUploadMB: 1})

	stored, err := svc.Save(context.Background(), &validation.ImageUpload{
		Filename: "bomb.png",
		Content:  testutil.PNGHeader(60000, 60000),
	})
	require.Error(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, msgInvalidImage, models.FieldErrors(err)["image"])

	_, err = os.Stat(filepath.Join(root, "posts"))
	assert.True(t, os.IsNotExist(err))
}

func TestImageService_PreviewsAreNotShared(t *testing.T) {
	root := t.TempDir()
	svc := NewImageService(&config.Config{MediaRoot: root, ImageMaxUploadMB: 1})
	ctx := context.Background()

	first, err := svc.Save(ctx, &validation.ImageUpload{Filename: "small.gif", Content: testutil.SmallGIF})
	require.NoError(t, err)
	second, err := svc.Save(ctx, &validation.ImageUpload{Filename: "small.gif", Content: testutil.SmallGIF})
	require.NoError(t, err)

	assert.Equal(t, "posts/previews/small.webp", first.Preview)
	assert.NotEqual(t, first.Name, second.Name)
	assert.NotEqual(t, first.Preview, second.Preview)

	svc.Remove(second)
	for _, name := range []string{first.Name, first.Preview} {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}
}

package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // GIF decode support
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // BMP decode support
	_ "golang.org/x/image/tiff" // TIFF decode support
	_ "golang.org/x/image/webp" // WebP decode support
)

// DefaultMaxEdge bounds the longest side of an image sent for inference.
const DefaultMaxEdge = 2048

// Image is a decoded, size-bounded image ready to attach to a request.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
	Width    int
	Height   int
	Resized  bool
}

// ImageConfig tunes image preparation.
type ImageConfig struct {
	MaxEdge       int
	JPEGQuality   int
	HeicConverter string // heif-convert | magick | sips
}

// ImageLoader decodes product photos and scans and re-encodes them within MaxEdge.
type ImageLoader struct {
	cfg    ImageConfig
	runner Runner
	logger *slog.Logger
}

func NewImageLoader(cfg ImageConfig, runner Runner, logger *slog.Logger) *ImageLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	if cfg.MaxEdge <= 0 {
		cfg.MaxEdge = DefaultMaxEdge
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 85
	}
	return &ImageLoader{cfg: cfg, runner: runner, logger: logger}
}

// Load reads path, converting HEIC first. JPEG stays JPEG; every other format becomes PNG.
// Images already within bounds in a format providers accept are passed through unchanged.
func (l *ImageLoader) Load(ctx context.Context, path string) (Image, error) {
	name := filepath.Base(path)
	src := path
	if ext := constants.NormalizeExt(filepath.Ext(path)); ext == "heic" || ext == "heif" {
		out, cleanup, err := convertHEICtoPNG(ctx, l.runner, l.cfg.HeicConverter, path)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			l.logger.Error("heic conversion failed", "path", path, "error", err)
			return Image{}, err
		}
		src = out
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return Image{}, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode image %s: %w", name, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Image{}, fmt.Errorf("decode image %s: empty image", name)
	}

	resized := false
	if longest := max(w, h); longest > l.cfg.MaxEdge {
		scale := float64(l.cfg.MaxEdge) / float64(longest)
		nw, nh := max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img, w, h, resized = dst, nw, nh, true
	}

	out := Image{Name: name, Width: w, Height: h, Resized: resized}
	switch {
	case !resized && format == "jpeg":
		out.MIMEType, out.Data = "image/jpeg", data
	case !resized && format == "png":
		out.MIMEType, out.Data = "image/png", data
	case format == "jpeg":
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: l.cfg.JPEGQuality}); err != nil {
			return Image{}, fmt.Errorf("encode jpeg: %w", err)
		}
		out.MIMEType, out.Data = "image/jpeg", buf.Bytes()
	default:
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return Image{}, fmt.Errorf("encode png: %w", err)
		}
		out.MIMEType, out.Data = "image/png", buf.Bytes()
	}

	l.logger.Debug("image prepared",
		"name", name,
		"format", format,
		"width", w,
		"height", h,
		"resized", resized,
		"bytes", len(out.Data),
	)
	return out, nil
}

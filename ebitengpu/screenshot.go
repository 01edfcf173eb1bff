package ebitengpu

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/orrery"
)

// DefaultScreenshotDir is where screenshots go when RunConfig leaves it empty.
const DefaultScreenshotDir = "screenshots"

// screenshots queues labels until the end of the next Draw, when the canvas
// holds the finished frame.
type screenshots struct {
	dir   string
	queue []string
	// now stamps file names. Tests replace it.
	now func() time.Time
}

func (s *screenshots) add(label string) {
	s.queue = append(s.queue, label)
}

// flush writes one PNG per queued label and returns the paths written.
func (s *screenshots) flush(src *ebiten.Image) []string {
	if len(s.queue) == 0 || src == nil {
		return nil
	}
	defer func() { s.queue = s.queue[:0] }()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		orrery.Logger().Error("screenshot: mkdir failed", "dir", s.dir, "err", err)
		return nil
	}

	b := src.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	src.ReadPixels(pixels)
	img := unpremultiply(pixels, b.Dx(), b.Dy())

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	stamp := now().Format("20060102_150405")

	var written []string
	for _, label := range s.queue {
		path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			orrery.Logger().Error("screenshot failed", "label", label, "err", err)
			continue
		}
		orrery.Logger().Info("screenshot saved", "path", path)
		written = append(written, path)
	}
	return written
}

// unpremultiply converts premultiplied RGBA bytes to a straight-alpha image.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels) && i+3 < len(img.Pix); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel keeps letters, digits, '-' and '.', replaces everything else
// with '_' and maps an empty label to "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

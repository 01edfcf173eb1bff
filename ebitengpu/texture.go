package ebitengpu

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	// Decoders registered with image.Decode.
	_ "image/jpeg"
	_ "image/png"

	"github.com/hajimehoshi/ebiten/v2"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Texture is an image decoded off the render thread. The GPU image is
// created on first use from the render thread.
type Texture struct {
	path string

	mu     sync.Mutex
	pixels *image.RGBA
	loaded bool
	err    error

	img *ebiten.Image
}

// Path returns the file the texture was requested from.
func (t *Texture) Path() string { return t.path }

// Loaded reports whether decoding finished successfully.
func (t *Texture) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

// Err returns the decode error, if any.
func (t *Texture) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Size returns the decoded pixel size, or 0x0 before loading finishes.
func (t *Texture) Size() (w, h int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pixels == nil {
		return 0, 0
	}
	b := t.pixels.Bounds()
	return b.Dx(), b.Dy()
}

func (t *Texture) finish(pixels *image.RGBA, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pixels = pixels
	t.err = err
	t.loaded = err == nil
}

// image returns the GPU image, creating it on first call after loading.
// Render thread only.
func (t *Texture) image() *ebiten.Image {
	if t.img != nil {
		return t.img
	}
	t.mu.Lock()
	pixels := t.pixels
	t.mu.Unlock()
	if pixels == nil {
		return nil
	}
	t.img = ebiten.NewImageFromImage(pixels)
	return t.img
}

// decodeTextureFile reads and decodes path. See decodeTexture.
func decodeTextureFile(path string, width, height int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeTexture(bufio.NewReader(f), width, height)
}

// decodeTexture decodes a JPEG, PNG, BMP or WebP image and resamples it to
// width x height. A non-positive size keeps the source size.
func decodeTexture(r io.Reader, width, height int) (*image.RGBA, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	sb := src.Bounds()
	if sb.Empty() {
		return nil, fmt.Errorf("decode %s: empty image", format)
	}
	if width <= 0 || height <= 0 {
		width, height = sb.Dx(), sb.Dy()
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == sb.Dx() && height == sb.Dy() {
		xdraw.Draw(dst, dst.Bounds(), src, sb.Min, xdraw.Src)
		return dst, nil
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sb, xdraw.Src, nil)
	return dst, nil
}

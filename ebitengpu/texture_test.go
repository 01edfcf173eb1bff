package ebitengpu

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeTextureKeepsSize(t *testing.T) {
	data := encodeTestPNG(t, 3, 2, color.NRGBA{R: 255, A: 255})
	img, err := decodeTexture(bytes.NewReader(data), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(2, 1))
}

func TestDecodeTextureResamples(t *testing.T) {
	data := encodeTestPNG(t, 3, 2, color.NRGBA{G: 255, A: 255})
	img, err := decodeTexture(bytes.NewReader(data), 16, 8)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
	c := img.RGBAAt(8, 4)
	assert.InDelta(t, 255, int(c.G), 1)
	assert.InDelta(t, 0, int(c.R), 1)
}

func TestDecodeTextureRejectsGarbage(t *testing.T) {
	_, err := decodeTexture(strings.NewReader("not an image"), 4, 4)
	assert.ErrorContains(t, err, "decode")
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("texture load never finished")
		return nil
	}
}

func TestLoadTexture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.png")
	require.NoError(t, os.WriteFile(path, encodeTestPNG(t, 4, 4, color.NRGBA{B: 255, A: 255}), 0o644))

	dev := NewDevice(DeviceConfig{TextureWidth: 8, TextureHeight: 4})
	done := make(chan error, 1)
	tex, err := dev.LoadTexture(path, func(err error) { done <- err })
	require.NoError(t, err)
	assert.Equal(t, path, tex.Path())

	require.NoError(t, waitDone(t, done))
	assert.True(t, tex.Loaded())
	w, h := tex.(*Texture).Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)
}

func TestLoadTextureMissingFileFailsSynchronously(t *testing.T) {
	dev := NewDevice(DeviceConfig{})
	called := false
	_, err := dev.LoadTexture(filepath.Join(t.TempDir(), "missing.png"), func(error) { called = true })
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, called)
}

func TestLoadTextureDecodeErrorReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	dev := NewDevice(DeviceConfig{TextureWidth: 4, TextureHeight: 4})
	done := make(chan error, 1)
	tex, err := dev.LoadTexture(path, func(err error) { done <- err })
	require.NoError(t, err)

	loadErr := waitDone(t, done)
	require.Error(t, loadErr)
	assert.Contains(t, loadErr.Error(), "broken.png")
	assert.False(t, tex.Loaded())
	assert.Equal(t, loadErr, tex.(*Texture).Err())
}

func TestLoadTextureConcurrent(t *testing.T) {
	dir := t.TempDir()
	dev := NewDevice(DeviceConfig{TextureWidth: 4, TextureHeight: 2, Decoders: 2})
	done := make(chan error, 6)
	var texs []*Texture
	for i := range 6 {
		path := filepath.Join(dir, string(rune('a'+i))+".png")
		require.NoError(t, os.WriteFile(path, encodeTestPNG(t, 2, 2, color.NRGBA{A: 255}), 0o644))
		tex, err := dev.LoadTexture(path, func(err error) { done <- err })
		require.NoError(t, err)
		texs = append(texs, tex.(*Texture))
	}
	for range texs {
		require.NoError(t, waitDone(t, done))
	}
	for _, tex := range texs {
		assert.True(t, tex.Loaded(), tex.Path())
	}
}

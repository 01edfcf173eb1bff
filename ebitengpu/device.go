// Package ebitengpu implements the orrery rendering interfaces on
// Ebitengine. Programs are Kage shaders, meshes are projected on the CPU and
// drawn with DrawTrianglesShader, and depth ordering is painter's sorting of
// the frame's triangles. Frames render into a persistent offscreen canvas
// that is blitted to the screen every tick, so the scene only redraws when
// something changes.
package ebitengpu

import (
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/orrery"
	"github.com/phanxgames/orrery/parametric"
	"golang.org/x/sync/errgroup"
)

// Defaults for DeviceConfig.
const (
	DefaultTextureWidth  = 2048
	DefaultTextureHeight = 1024
	DefaultDecoders      = 4
)

// DeviceConfig configures a Device. Zero fields take the defaults.
type DeviceConfig struct {
	Width, Height int
	// TextureWidth and TextureHeight are the size every texture is resampled
	// to. Kage samples all source images of a draw with the same coordinates.
	TextureWidth, TextureHeight int
	// Decoders bounds concurrent texture decoding.
	Decoders int
}

// Device is both the orrery.RenderContext and the orrery.Device for
// Ebitengine. All methods except LoadTexture's completion run on the game
// goroutine.
type Device struct {
	width, height int
	canvas        *ebiten.Image

	clear     orrery.Color
	depthTest bool
	depthFunc orrery.DepthFunc
	active    *Program

	// tris is the current frame, sorted and drawn on the next Present.
	tris  []triangle
	dirty bool

	texW, texH int
	loads      errgroup.Group
}

// NewDevice returns a device drawing into a width x height canvas.
func NewDevice(cfg DeviceConfig) *Device {
	if cfg.TextureWidth <= 0 || cfg.TextureHeight <= 0 {
		cfg.TextureWidth, cfg.TextureHeight = DefaultTextureWidth, DefaultTextureHeight
	}
	if cfg.Decoders <= 0 {
		cfg.Decoders = DefaultDecoders
	}
	d := &Device{
		width:  max(cfg.Width, 1),
		height: max(cfg.Height, 1),
		clear:  orrery.ColorBlack,
		texW:   cfg.TextureWidth,
		texH:   cfg.TextureHeight,
	}
	d.loads.SetLimit(cfg.Decoders)
	return d
}

// --- RenderContext ---

// Viewport returns the canvas size.
func (d *Device) Viewport() (int, int) {
	return d.width, d.height
}

// Clear starts a new frame filled with c. Triangles queued by the previous
// frame are discarded and depth testing is off until re-enabled.
func (d *Device) Clear(c orrery.Color) {
	d.clear = c
	d.tris = d.tris[:0]
	d.depthTest = false
	d.dirty = true
}

// EnableDepthTest turns on depth ordering for the current frame.
func (d *Device) EnableDepthTest(fn orrery.DepthFunc) {
	d.depthTest = true
	d.depthFunc = fn
}

// Resize changes the canvas size and reports whether it changed. The scene
// must be redrawn for the new aspect ratio.
func (d *Device) Resize(width, height int) bool {
	width, height = max(width, 1), max(height, 1)
	if width == d.width && height == d.height {
		return false
	}
	d.width, d.height = width, height
	if d.canvas != nil {
		d.canvas.Deallocate()
		d.canvas = nil
	}
	return true
}

// Canvas returns the offscreen image frames are drawn into, or nil before
// the first Present.
func (d *Device) Canvas() *ebiten.Image {
	return d.canvas
}

// Present draws the pending frame into the canvas if there is one, then
// copies the canvas to screen.
func (d *Device) Present(screen *ebiten.Image) {
	if d.canvas == nil {
		d.canvas = ebiten.NewImage(d.width, d.height)
		d.canvas.Fill(toRGBA(d.clear))
	}
	if d.dirty {
		d.flush()
	}
	screen.DrawImage(d.canvas, nil)
}

func (d *Device) flush() {
	d.canvas.Fill(toRGBA(d.clear))
	if d.depthTest && d.depthFunc != orrery.DepthAlways {
		sortFarToNear(d.tris)
	}
	calls := 0
	batches(d.tris, func(st *drawState, verts []ebiten.Vertex, indices []uint16) {
		if st.shader == nil {
			return
		}
		op := &ebiten.DrawTrianglesShaderOptions{Uniforms: st.uniforms, Images: st.images}
		d.canvas.DrawTrianglesShader(verts, indices, st.shader, op)
		calls++
	})
	orrery.Logger().Debug("frame presented", "triangles", len(d.tris), "batches", calls)
	d.dirty = false
}

// --- Device ---

// RegisterShader adds a Kage source LinkProgram can link under name.
func RegisterShader(name, src string) {
	shaderSources[name] = src
}

// LinkProgram compiles the Kage shader registered under name.
func (d *Device) LinkProgram(name string) (orrery.Program, error) {
	src, ok := shaderSources[name]
	if !ok {
		return nil, fmt.Errorf("ebitengpu: no shader named %q", name)
	}
	shader, err := ebiten.NewShader([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("ebitengpu: compile %s: %w", name, err)
	}
	return newProgram(name, d, shader, declaredUniforms(src)), nil
}

// UploadMesh keeps the mesh data for CPU projection.
func (d *Device) UploadMesh(name string, data *parametric.Mesh) (orrery.Mesh, error) {
	if data == nil || data.NumVertices() == 0 {
		return nil, fmt.Errorf("ebitengpu: mesh %q is empty", name)
	}
	if len(data.Normals) != data.NumVertices() {
		return nil, fmt.Errorf("ebitengpu: mesh %q has %d normals for %d vertices",
			name, len(data.Normals), data.NumVertices())
	}
	for _, i := range data.Indices {
		if int(i) >= data.NumVertices() {
			return nil, fmt.Errorf("ebitengpu: mesh %q index %d out of range", name, i)
		}
	}
	return &Mesh{name: name, dev: d, data: data}, nil
}

// LoadTexture starts decoding path on a background goroutine, at most
// DeviceConfig.Decoders at a time, and calls done when it finishes. A
// missing file fails synchronously.
func (d *Device) LoadTexture(path string, done func(error)) (orrery.Texture, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	t := &Texture{path: path}
	w, h := d.texW, d.texH
	// The group only bounds concurrent decodes. Nobody calls Wait: each
	// result goes to done, so the closure always returns nil. Go blocks
	// while the group is full, hence the outer goroutine.
	go d.loads.Go(func() error {
		pixels, err := decodeTextureFile(path, w, h)
		if err != nil {
			err = fmt.Errorf("ebitengpu: texture %s: %w", path, err)
			orrery.Logger().Error("texture load failed", "path", path, "err", err)
		} else {
			orrery.Logger().Debug("texture loaded", "path", path)
		}
		t.finish(pixels, err)
		done(err)
		return nil
	})
	return t, nil
}

func toRGBA(c orrery.Color) color.RGBA {
	clamp := func(v float32) uint8 {
		return uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	a := min(max(c.A, 0), 1)
	return color.RGBA{R: clamp(c.R * a), G: clamp(c.G * a), B: clamp(c.B * a), A: clamp(a)}
}

package orrery

import "github.com/go-gl/mathgl/mgl32"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float32
}

// ColorBlack is the default clear color.
var ColorBlack = Color{0, 0, 0, 1}

// DepthFunc selects the depth comparison used when depth testing is enabled.
type DepthFunc uint8

const (
	DepthLess      DepthFunc = iota // pass if the incoming depth is less than the stored depth
	DepthLessEqual                  // pass if less than or equal
	DepthAlways                     // always pass (depth ordering disabled)
)

// String returns the GL-style name of the depth function.
func (f DepthFunc) String() string {
	switch f {
	case DepthLess:
		return "LESS"
	case DepthLessEqual:
		return "LEQUAL"
	case DepthAlways:
		return "ALWAYS"
	default:
		return "UNKNOWN"
	}
}

// RenderContext is the low-level GPU surface the scene clears and configures
// each frame. Primitive submission goes through Program and Mesh, never through
// the context directly.
type RenderContext interface {
	// Viewport returns the drawing buffer size in pixels.
	Viewport() (width, height int)
	// Clear clears the color and depth buffers, filling color with c.
	Clear(c Color)
	// EnableDepthTest turns on depth testing with the given comparison.
	EnableDepthTest(fn DepthFunc)
}

// Program is one linked GPU shader program.
type Program interface {
	// Use makes the program the active one for subsequent uniform writes
	// and draw calls.
	Use()
	// SetUniform writes a named uniform. The value's dynamic type carries
	// the GLSL type.
	SetUniform(name string, value Uniform)
	// SetTexture binds tex to texture unit and points the named sampler at it.
	SetTexture(name string, unit int, tex Texture)
}

// Texture is one GPU texture whose pixels are loaded asynchronously.
type Texture interface {
	// Path returns the image resource the texture was requested from.
	Path() string
	// Loaded reports whether the pixel data is complete.
	Loaded() bool
}

// TextureLoader starts loading textures. LoadTexture returns immediately; the
// loader calls done exactly once, from any goroutine, when the load finishes.
type TextureLoader interface {
	LoadTexture(path string, done func(error)) (Texture, error)
}

// Mesh is vertex/index data uploaded to the GPU that can issue a draw call
// with the currently active program.
type Mesh interface {
	Draw(p Program) error
}

// Axis vectors for rotations.
var (
	AxisX = mgl32.Vec3{1, 0, 0}
	AxisY = mgl32.Vec3{0, 1, 0}
	AxisZ = mgl32.Vec3{0, 0, 1}
)

package orrery

import "github.com/go-gl/mathgl/mgl32"

// Camera places the viewer and defines the perspective projection.
type Camera struct {
	// Eye, Center and Up define the look-at view transform.
	Eye, Center, Up mgl32.Vec3
	// FovY is the vertical field of view in degrees.
	FovY float32
	// Near and Far are the clip plane distances.
	Near, Far float32
}

// DefaultCamera looks at the origin from slightly above the +Z axis.
func DefaultCamera() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 0.5, 3},
		Center: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FovY:   45,
		Near:   0.01,
		Far:    100,
	}
}

// View returns the camera transformation.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Center, c.Up)
}

// Projection returns the perspective projection for the given aspect ratio
// (width / height). A non-positive aspect is treated as 1.
func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// aspectRatio returns width / height for a viewport, 1 for an empty one.
func aspectRatio(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// Package parametric tessellates parametric surfaces into indexed triangle
// meshes with per-vertex normals and texture coordinates.
package parametric

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxVertices is the largest vertex count addressable with 16-bit indices.
const MaxVertices = 1 << 16

// Mesh is CPU-side triangle data. Positions, Normals and UVs are parallel.
// Triangles wind counter-clockwise when seen from the side Normals point to.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint16
}

// NumVertices returns the number of vertices.
func (m *Mesh) NumVertices() int { return len(m.Positions) }

// NumTriangles returns the number of triangles.
func (m *Mesh) NumTriangles() int { return len(m.Indices) / 3 }

// SurfaceFunc evaluates a surface at parameters (u, v), returning the
// position and the unit normal there.
type SurfaceFunc func(u, v float32) (pos, normal mgl32.Vec3)

// Segments configures the tessellation of a surface.
type Segments struct {
	U, V int
}

// Grid samples f on a (segs.U+1) x (segs.V+1) grid over [uMin,uMax] x
// [vMin,vMax] and connects neighbouring samples with two triangles per cell.
// Texture coordinates run from (0,0) at (uMin,vMin) to (1,1) at (uMax,vMax).
func Grid(f SurfaceFunc, uMin, uMax, vMin, vMax float32, segs Segments) (*Mesh, error) {
	if segs.U < 1 || segs.V < 1 {
		return nil, fmt.Errorf("parametric: segments must be positive, got %dx%d", segs.U, segs.V)
	}
	n := (segs.U + 1) * (segs.V + 1)
	if n > MaxVertices {
		return nil, fmt.Errorf("parametric: %dx%d segments need %d vertices, limit is %d",
			segs.U, segs.V, n, MaxVertices)
	}

	m := &Mesh{
		Positions: make([]mgl32.Vec3, 0, n),
		Normals:   make([]mgl32.Vec3, 0, n),
		UVs:       make([]mgl32.Vec2, 0, n),
		Indices:   make([]uint16, 0, segs.U*segs.V*6),
	}
	for j := 0; j <= segs.V; j++ {
		t := float32(j) / float32(segs.V)
		v := vMin + t*(vMax-vMin)
		for i := 0; i <= segs.U; i++ {
			s := float32(i) / float32(segs.U)
			u := uMin + s*(uMax-uMin)
			pos, normal := f(u, v)
			m.Positions = append(m.Positions, pos)
			m.Normals = append(m.Normals, normal)
			m.UVs = append(m.UVs, mgl32.Vec2{s, t})
		}
	}

	row := segs.U + 1
	for j := 0; j < segs.V; j++ {
		for i := 0; i < segs.U; i++ {
			a := uint16(j*row + i)
			b := a + 1
			c := uint16((j+1)*row + i)
			d := c + 1
			m.Indices = append(m.Indices, a, b, c, b, d, c)
		}
	}
	return m, nil
}

// Sphere returns a sphere of the given radius centred at the origin with
// its poles on the Z axis. u runs around the Z axis, v from pole to pole.
func Sphere(radius float32, segs Segments) (*Mesh, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("parametric: sphere radius must be positive, got %g", radius)
	}
	if segs.U < 3 || segs.V < 2 {
		return nil, fmt.Errorf("parametric: sphere needs at least 3x2 segments, got %dx%d", segs.U, segs.V)
	}
	return Grid(func(u, v float32) (mgl32.Vec3, mgl32.Vec3) {
		su, cu := math32.Sincos(u)
		sv, cv := math32.Sincos(v)
		n := mgl32.Vec3{sv * cu, sv * su, cv}
		return n.Mul(radius), n
	}, 0, 2*math32.Pi, math32.Pi, 0, segs)
}

// Torus returns a torus in the XY plane centred at the origin. radius is the
// distance from the centre to the middle of the tube, tube the tube radius.
func Torus(radius, tube float32, segs Segments) (*Mesh, error) {
	if radius <= 0 || tube <= 0 {
		return nil, fmt.Errorf("parametric: torus radii must be positive, got %g and %g", radius, tube)
	}
	if tube >= radius {
		return nil, fmt.Errorf("parametric: torus tube %g must be smaller than radius %g", tube, radius)
	}
	if segs.U < 3 || segs.V < 3 {
		return nil, fmt.Errorf("parametric: torus needs at least 3x3 segments, got %dx%d", segs.U, segs.V)
	}
	return Grid(func(u, v float32) (mgl32.Vec3, mgl32.Vec3) {
		su, cu := math32.Sincos(u)
		sv, cv := math32.Sincos(v)
		n := mgl32.Vec3{cv * cu, cv * su, sv}
		ring := radius + tube*cv
		return mgl32.Vec3{ring * cu, ring * su, tube * sv}, n
	}, 0, 2*math32.Pi, 0, 2*math32.Pi, segs)
}

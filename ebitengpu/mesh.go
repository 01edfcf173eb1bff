package ebitengpu

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/orrery"
	"github.com/phanxgames/orrery/parametric"
)

// maxBatchVertices caps one DrawTrianglesShader call at 16-bit indices.
const maxBatchVertices = 1<<16 - 1

// drawState is the program state captured when a mesh is drawn.
type drawState struct {
	shader   *ebiten.Shader
	uniforms map[string]any
	images   [maxTextureUnits]*ebiten.Image
}

// triangle is one projected triangle waiting for the frame to be presented.
type triangle struct {
	verts [3]ebiten.Vertex
	depth float32 // mean NDC depth, larger is farther
	state *drawState
}

// Mesh is uploaded parametric mesh data. Vertices are projected on the CPU
// at draw time with the active program's matrices.
type Mesh struct {
	name string
	dev  *Device
	data *parametric.Mesh
}

// Name returns the name the mesh was uploaded under.
func (m *Mesh) Name() string { return m.name }

// Draw projects the mesh with p's projection, model-view and normal matrices
// and queues its triangles for the current frame. Triangles with a vertex
// behind the eye are dropped.
func (m *Mesh) Draw(p orrery.Program) error {
	prog, ok := p.(*Program)
	if !ok {
		return fmt.Errorf("ebitengpu: mesh %s: program %T is not an ebitengpu program", m.name, p)
	}
	if m.dev.active != prog {
		return fmt.Errorf("ebitengpu: mesh %s: program %s is not active", m.name, prog.name)
	}
	projection, err := prog.mat4(orrery.UniformProjection)
	if err != nil {
		return err
	}
	modelView, err := prog.mat4(orrery.UniformModelView)
	if err != nil {
		return err
	}
	normal, err := prog.mat3(orrery.UniformNormal)
	if err != nil {
		return err
	}

	mvp := projection.Mul4(modelView)
	w, h := m.dev.Viewport()
	sw, sh := prog.sourceSize()
	verts, depths, visible := projectMesh(m.data, mvp, normal, w, h, sw, sh)

	state := prog.snapshot()
	idx := m.data.Indices
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := idx[i], idx[i+1], idx[i+2]
		if !visible[a] || !visible[b] || !visible[c] {
			continue
		}
		m.dev.tris = append(m.dev.tris, triangle{
			verts: [3]ebiten.Vertex{verts[a], verts[b], verts[c]},
			depth: (depths[a] + depths[b] + depths[c]) / 3,
			state: state,
		})
	}
	m.dev.dirty = true
	return nil
}

// projectMesh transforms every vertex to screen space. Normals go through
// the normal matrix and are encoded in the vertex color; texture coordinates
// are scaled to a srcW x srcH source with V flipped so t=1 is the top row.
func projectMesh(data *parametric.Mesh, mvp mgl32.Mat4, normal mgl32.Mat3, width, height int, srcW, srcH float32) ([]ebiten.Vertex, []float32, []bool) {
	n := data.NumVertices()
	verts := make([]ebiten.Vertex, n)
	depths := make([]float32, n)
	visible := make([]bool, n)
	for i, pos := range data.Positions {
		x, y, z, ok := projectVertex(mvp, pos, width, height)
		if !ok {
			continue
		}
		visible[i] = true
		depths[i] = z
		r, g, b := encodeNormal(normal.Mul3x1(data.Normals[i]))
		var u, v float32
		if i < len(data.UVs) {
			u, v = data.UVs[i][0], data.UVs[i][1]
		}
		verts[i] = ebiten.Vertex{
			DstX:   x,
			DstY:   y,
			SrcX:   u * srcW,
			SrcY:   (1 - v) * srcH,
			ColorR: r,
			ColorG: g,
			ColorB: b,
			ColorA: 1,
		}
	}
	return verts, depths, visible
}

// projectVertex maps a model-space position through mvp to window pixels
// (origin top-left, Y down) and returns its NDC depth. ok is false for
// points on or behind the eye plane.
func projectVertex(mvp mgl32.Mat4, pos mgl32.Vec3, width, height int) (x, y, depth float32, ok bool) {
	clip := mvp.Mul4x1(pos.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = (ndc.X()*0.5 + 0.5) * float32(width)
	y = (0.5 - ndc.Y()*0.5) * float32(height)
	return x, y, ndc.Z(), true
}

// encodeNormal packs a normal into [0,1] color channels.
func encodeNormal(n mgl32.Vec3) (r, g, b float32) {
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	return n.X()*0.5 + 0.5, n.Y()*0.5 + 0.5, n.Z()*0.5 + 0.5
}

// sortFarToNear orders triangles for painter's-algorithm depth testing.
// Equal depths keep submission order.
func sortFarToNear(tris []triangle) {
	slices.SortStableFunc(tris, func(a, b triangle) int {
		return cmp.Compare(b.depth, a.depth)
	})
}

// batches splits tris into runs sharing a draw state, each small enough
// for 16-bit indices, and calls fn once per run.
func batches(tris []triangle, fn func(state *drawState, verts []ebiten.Vertex, indices []uint16)) {
	var (
		verts   []ebiten.Vertex
		indices []uint16
		state   *drawState
	)
	flush := func() {
		if len(verts) > 0 {
			fn(state, verts, indices)
		}
		verts, indices = nil, nil
	}
	for i := range tris {
		t := &tris[i]
		if t.state != state || len(verts)+3 > maxBatchVertices {
			flush()
			state = t.state
		}
		base := uint16(len(verts))
		verts = append(verts, t.verts[:]...)
		indices = append(indices, base, base+1, base+2)
	}
	flush()
}

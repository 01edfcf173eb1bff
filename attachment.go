package orrery

import "github.com/go-gl/mathgl/mgl32"

// Attachment is a payload hung on a Node: a *Material, *Light or *Geometry.
// The set is closed; traversal handles each variant explicitly.
type Attachment interface {
	attachmentName() string
}

// --- Material ---

// Material carries Phong shading constants. Its uniforms are written into
// whichever program is active when the owning node is drawn.
type Material struct {
	Name      string // uniform struct prefix, e.g. "material"
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
}

// NewPhongMaterial creates a material writing under the given uniform prefix.
func NewPhongMaterial(name string, ambient, diffuse, specular mgl32.Vec3, shininess float32) *Material {
	return &Material{
		Name:      name,
		Ambient:   ambient,
		Diffuse:   diffuse,
		Specular:  specular,
		Shininess: shininess,
	}
}

func (m *Material) attachmentName() string { return m.Name }

// apply writes the material constants into p and returns the number of
// uniforms written.
func (m *Material) apply(p Program) int {
	p.SetUniform(m.Name+".ambient", UniformVec3(m.Ambient))
	p.SetUniform(m.Name+".diffuse", UniformVec3(m.Diffuse))
	p.SetUniform(m.Name+".specular", UniformVec3(m.Specular))
	p.SetUniform(m.Name+".shininess", UniformFloat(m.Shininess))
	return 4
}

// --- Light ---

// Light is a directional light. Direction is in world space and does not
// follow the transform of the node it is attached to. Its uniforms go to
// the Targets it was constructed with, not to the active program.
type Light struct {
	Name      string // uniform struct prefix, e.g. "light"
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Targets   []Program
}

// NewDirectionalLight creates a light that writes into every target program.
func NewDirectionalLight(name string, direction, color mgl32.Vec3, targets ...Program) *Light {
	return &Light{
		Name:      name,
		Direction: direction,
		Color:     color,
		Targets:   targets,
	}
}

func (l *Light) attachmentName() string { return l.Name }

// apply activates each target in turn and writes direction and color.
// The caller must re-activate its own program afterwards.
func (l *Light) apply() int {
	n := 0
	for _, p := range l.Targets {
		if p == nil {
			continue
		}
		p.Use()
		p.SetUniform(l.Name+".direction", UniformVec3(l.Direction))
		p.SetUniform(l.Name+".color", UniformVec3(l.Color))
		n += 2
	}
	return n
}

// --- Geometry ---

// Geometry issues a mesh draw call with the active program.
type Geometry struct {
	Name string
	Mesh Mesh
}

// NewGeometry wraps an uploaded mesh as an attachment.
func NewGeometry(name string, mesh Mesh) *Geometry {
	return &Geometry{Name: name, Mesh: mesh}
}

func (g *Geometry) attachmentName() string { return g.Name }

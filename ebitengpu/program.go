package ebitengpu

import (
	"fmt"
	"maps"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/orrery"
)

// maxTextureUnits is the number of source images a Kage draw accepts.
const maxTextureUnits = 4

// Program is a linked Kage shader plus its uniform state. Matrix uniforms
// stay on the host for CPU projection; everything the shader declares is
// forwarded to it on each draw.
type Program struct {
	name     string
	dev      *Device
	shader   *ebiten.Shader
	declared map[string]bool

	// uniforms holds Kage-ready values keyed by Kage name.
	uniforms map[string]any
	// host holds every uniform as written, keyed by scene name.
	host map[string]orrery.Uniform

	units    [maxTextureUnits]*Texture
	samplers map[string]int
}

func newProgram(name string, dev *Device, shader *ebiten.Shader, declared map[string]bool) *Program {
	return &Program{
		name:     name,
		dev:      dev,
		shader:   shader,
		declared: declared,
		uniforms: make(map[string]any),
		host:     make(map[string]orrery.Uniform),
		samplers: make(map[string]int),
	}
}

// Name returns the name the program was linked under.
func (p *Program) Name() string { return p.name }

// Use makes p the device's active program.
func (p *Program) Use() {
	p.dev.active = p
}

// SetUniform records the value and, when the shader declares the
// corresponding Kage variable, forwards it.
func (p *Program) SetUniform(name string, value orrery.Uniform) {
	p.host[name] = value
	k := kageName(name)
	if !p.declared[k] {
		return
	}
	if v, ok := kageValue(value); ok {
		p.uniforms[k] = v
	}
}

// SetTexture binds tex to the given unit. Units past the four Kage source
// images are logged and ignored.
func (p *Program) SetTexture(name string, unit int, tex orrery.Texture) {
	t, ok := tex.(*Texture)
	if !ok {
		orrery.Logger().Warn("texture from another backend ignored",
			"program", p.name, "sampler", name, "type", fmt.Sprintf("%T", tex))
		return
	}
	if unit < 0 || unit >= maxTextureUnits {
		orrery.Logger().Warn("texture unit out of range",
			"program", p.name, "sampler", name, "unit", unit, "max", maxTextureUnits-1)
		return
	}
	p.units[unit] = t
	p.samplers[name] = unit
}

// Uniform returns the last value written under the scene name.
func (p *Program) Uniform(name string) (orrery.Uniform, bool) {
	u, ok := p.host[name]
	return u, ok
}

func (p *Program) mat4(name string) (mgl32.Mat4, error) {
	u, ok := p.host[name]
	if !ok {
		return mgl32.Mat4{}, fmt.Errorf("ebitengpu: program %s: %s not set", p.name, name)
	}
	m, ok := u.(orrery.UniformMat4)
	if !ok {
		return mgl32.Mat4{}, fmt.Errorf("ebitengpu: program %s: %s is %s, want mat4", p.name, name, u.GLSLType())
	}
	return mgl32.Mat4(m), nil
}

func (p *Program) mat3(name string) (mgl32.Mat3, error) {
	u, ok := p.host[name]
	if !ok {
		return mgl32.Mat3{}, fmt.Errorf("ebitengpu: program %s: %s not set", p.name, name)
	}
	m, ok := u.(orrery.UniformMat3)
	if !ok {
		return mgl32.Mat3{}, fmt.Errorf("ebitengpu: program %s: %s is %s, want mat3", p.name, name, u.GLSLType())
	}
	return mgl32.Mat3(m), nil
}

// snapshot captures the state a draw needs, so later uniform writes in the
// same frame do not leak into triangles already queued.
func (p *Program) snapshot() *drawState {
	st := &drawState{
		shader:   p.shader,
		uniforms: maps.Clone(p.uniforms),
	}
	for i, t := range p.units {
		if t != nil {
			st.images[i] = t.image()
		}
	}
	return st
}

// sourceSize returns the pixel size of the unit 0 texture, or 1x1 when none
// is bound.
func (p *Program) sourceSize() (w, h float32) {
	if t := p.units[0]; t != nil {
		if tw, th := t.Size(); tw > 0 && th > 0 {
			return float32(tw), float32(th)
		}
	}
	return 1, 1
}

// kageValue converts a uniform to the value type Kage accepts.
func kageValue(u orrery.Uniform) (any, bool) {
	switch v := u.(type) {
	case orrery.UniformBool:
		if v {
			return float32(1), true
		}
		return float32(0), true
	case orrery.UniformFloat:
		return float32(v), true
	case orrery.UniformVec3:
		return []float32{v[0], v[1], v[2]}, true
	case orrery.UniformMat3:
		return v[:], true
	case orrery.UniformMat4:
		return v[:], true
	default:
		return nil, false
	}
}

package orrery

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/orrery/parametric"
)

const epsilon = 1e-5

const halfPi = math.Pi / 2

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func assertMat4(t *testing.T, name string, got, want mgl32.Mat4) {
	t.Helper()
	for i := range got {
		if !approxEqual(got[i], want[i], epsilon) {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
			return
		}
	}
}

// --- Recording GPU fakes ---

// gpuLog records every call made against the fake GPU in order and tracks
// which program is active.
type gpuLog struct {
	calls  []string
	active *fakeProgram
	// misuse collects uniform writes made to a program that was not active.
	misuse []string
}

func (l *gpuLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *gpuLog) reset() {
	l.calls = nil
	l.misuse = nil
}

func (l *gpuLog) count(call string) int {
	n := 0
	for _, c := range l.calls {
		if c == call {
			n++
		}
	}
	return n
}

type textureBinding struct {
	unit int
	tex  Texture
}

type fakeProgram struct {
	name     string
	log      *gpuLog
	uniforms map[string]Uniform
	textures map[string]textureBinding
	uses     int
	// writes counts SetUniform calls per name.
	writes map[string]int
}

func newFakeProgram(name string, log *gpuLog) *fakeProgram {
	return &fakeProgram{
		name:     name,
		log:      log,
		uniforms: make(map[string]Uniform),
		textures: make(map[string]textureBinding),
		writes:   make(map[string]int),
	}
}

func (p *fakeProgram) Use() {
	p.uses++
	p.log.active = p
	p.log.add("use %s", p.name)
}

func (p *fakeProgram) SetUniform(name string, value Uniform) {
	if p.log.active != p {
		p.log.misuse = append(p.log.misuse, p.name+"."+name)
	}
	p.uniforms[name] = value
	p.writes[name]++
	p.log.add("set %s.%s", p.name, name)
}

func (p *fakeProgram) SetTexture(name string, unit int, tex Texture) {
	if p.log.active != p {
		p.log.misuse = append(p.log.misuse, p.name+"."+name)
	}
	p.textures[name] = textureBinding{unit: unit, tex: tex}
	p.log.add("texture %s.%s=%d", p.name, name, unit)
}

func (p *fakeProgram) boolUniform(t *testing.T, name string) bool {
	t.Helper()
	u, ok := p.uniforms[name]
	if !ok {
		t.Fatalf("%s: uniform %q never written", p.name, name)
	}
	b, ok := u.(UniformBool)
	if !ok {
		t.Fatalf("%s: uniform %q is %T, want UniformBool", p.name, name, u)
	}
	return bool(b)
}

func (p *fakeProgram) mat4Uniform(t *testing.T, name string) mgl32.Mat4 {
	t.Helper()
	u, ok := p.uniforms[name]
	if !ok {
		t.Fatalf("%s: uniform %q never written", p.name, name)
	}
	m, ok := u.(UniformMat4)
	if !ok {
		t.Fatalf("%s: uniform %q is %T, want UniformMat4", p.name, name, u)
	}
	return mgl32.Mat4(m)
}

type fakeMesh struct {
	name string
	log  *gpuLog
	data *parametric.Mesh
	err  error
	// modelViews records the model-view matrix the active program held at
	// each draw.
	modelViews []mgl32.Mat4
	programs   []string
}

func (m *fakeMesh) Draw(p Program) error {
	fp := p.(*fakeProgram)
	if m.log.active != fp {
		m.log.misuse = append(m.log.misuse, "draw "+m.name+" with inactive "+fp.name)
	}
	m.log.add("draw %s with %s", m.name, fp.name)
	if m.err != nil {
		return m.err
	}
	m.programs = append(m.programs, fp.name)
	if u, ok := fp.uniforms[UniformModelView].(UniformMat4); ok {
		m.modelViews = append(m.modelViews, mgl32.Mat4(u))
	}
	return nil
}

type fakeContext struct {
	log    *gpuLog
	w, h   int
	clears []Color
	depth  []DepthFunc
}

func newFakeContext(log *gpuLog) *fakeContext {
	return &fakeContext{log: log, w: 640, h: 480}
}

func (c *fakeContext) Viewport() (int, int) { return c.w, c.h }

func (c *fakeContext) Clear(col Color) {
	c.clears = append(c.clears, col)
	c.log.add("clear")
}

func (c *fakeContext) EnableDepthTest(fn DepthFunc) {
	c.depth = append(c.depth, fn)
	c.log.add("depth %s", fn)
}

type fakeTexture struct {
	path string
	mu   sync.Mutex
	done bool
}

func (t *fakeTexture) Path() string { return t.path }

func (t *fakeTexture) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// fakeDevice hands out recording programs and meshes and keeps texture loads
// pending until the test completes them.
type fakeDevice struct {
	log      *gpuLog
	programs map[string]*fakeProgram
	meshes   map[string]*fakeMesh

	mu       sync.Mutex
	pending  map[string]func(error)
	textures map[string]*fakeTexture
	// failLoad makes LoadTexture fail synchronously for the given path.
	failLoad map[string]error
	// linkErr makes LinkProgram fail for the given name.
	linkErr map[string]error
}

func newFakeDevice(log *gpuLog) *fakeDevice {
	return &fakeDevice{
		log:      log,
		programs: make(map[string]*fakeProgram),
		meshes:   make(map[string]*fakeMesh),
		pending:  make(map[string]func(error)),
		textures: make(map[string]*fakeTexture),
		failLoad: make(map[string]error),
		linkErr:  make(map[string]error),
	}
}

func (d *fakeDevice) LinkProgram(name string) (Program, error) {
	if err := d.linkErr[name]; err != nil {
		return nil, err
	}
	p := newFakeProgram(name, d.log)
	d.programs[name] = p
	return p, nil
}

func (d *fakeDevice) UploadMesh(name string, data *parametric.Mesh) (Mesh, error) {
	m := &fakeMesh{name: name, log: d.log, data: data}
	d.meshes[name] = m
	return m, nil
}

func (d *fakeDevice) LoadTexture(path string, done func(error)) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failLoad[path]; err != nil {
		return nil, err
	}
	tex := &fakeTexture{path: path}
	d.textures[path] = tex
	d.pending[path] = done
	return tex, nil
}

// finish completes the load of path with err.
func (d *fakeDevice) finish(t *testing.T, path string, err error) {
	t.Helper()
	d.mu.Lock()
	done, ok := d.pending[path]
	delete(d.pending, path)
	tex := d.textures[path]
	d.mu.Unlock()
	if !ok {
		t.Fatalf("no pending load for %q", path)
	}
	if err == nil {
		tex.mu.Lock()
		tex.done = true
		tex.mu.Unlock()
	}
	done(err)
}

// finishAll completes every pending load successfully.
func (d *fakeDevice) finishAll(t *testing.T) {
	t.Helper()
	d.mu.Lock()
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.mu.Unlock()
	for _, p := range paths {
		d.finish(t, p, nil)
	}
}

func (d *fakeDevice) numPending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

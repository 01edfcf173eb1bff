package orrery

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// rotationAxes maps the logical axis names accepted by Scene.Rotate to
// rotation vectors.
var rotationAxes = map[string]mgl32.Vec3{
	"worldX": AxisX,
	"worldY": AxisY,
}

// TextureRequest names a texture to load and where to bind it once every
// requested texture has finished loading.
type TextureRequest struct {
	Name    string // key in the scene's texture set
	Path    string // image resource handed to the loader
	Program string // program the texture is bound to
	Uniform string // sampler uniform name
	Unit    int    // texture unit index
}

type visibilityBinding struct {
	option string
	node   *Node
}

type uniformBinding struct {
	option  string
	program string
	uniform string
}

// Scene is the top-level object that owns the programs, textures, camera and
// world transforms, the node tree and the draw options, and drives each frame.
//
// A Scene is not safe for concurrent use. Update, Draw and Rotate must all be
// called from the render thread; only texture loaders report from elsewhere.
type Scene struct {
	ctx RenderContext

	programs     map[string]Program
	programNames []string

	textures    map[string]Texture
	textureReqs []TextureRequest

	camera Camera
	world  mgl32.Mat4
	root   *Node

	options     *DrawOptions
	visBindings []visibilityBinding
	uniBindings []uniformBinding

	// ClearColor fills the color buffer at the start of every frame.
	ClearColor Color

	requested bool
	ready     bool
	readyCh   chan error

	frames int
	stats  FrameStats
	debug  bool
}

// NewScene creates an empty scene drawing into ctx. A scene that never
// requests textures is ready immediately.
func NewScene(ctx RenderContext) *Scene {
	return &Scene{
		ctx:        ctx,
		programs:   make(map[string]Program),
		textures:   make(map[string]Texture),
		camera:     DefaultCamera(),
		world:      mgl32.Ident4(),
		options:    NewDrawOptions(),
		ClearColor: ColorBlack,
		ready:      true,
		readyCh:    make(chan error, 1),
	}
}

// --- Programs ---

// AddProgram registers a linked program under a unique name.
func (s *Scene) AddProgram(name string, p Program) error {
	if name == "" {
		return fmt.Errorf("orrery: program name is empty")
	}
	if p == nil {
		return fmt.Errorf("orrery: program %q is nil", name)
	}
	if _, ok := s.programs[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateProgram, name)
	}
	s.programs[name] = p
	s.programNames = append(s.programNames, name)
	return nil
}

// Program returns the program registered under name, or nil.
func (s *Scene) Program(name string) Program {
	return s.programs[name]
}

// ProgramNames returns the registered program names in registration order.
// The returned slice MUST NOT be mutated.
func (s *Scene) ProgramNames() []string {
	return s.programNames
}

// --- Textures ---

// RequestTextures starts loading every requested texture through loader and
// arms the all-textures-ready barrier. It may be called once per scene.
//
// When the last load completes, the next Update binds each texture to its
// program and performs the first Draw. Until then Draw refuses to render.
// There is no timeout: a load that never completes keeps the scene from
// ever drawing.
func (s *Scene) RequestTextures(loader TextureLoader, reqs []TextureRequest) error {
	if s.requested {
		return fmt.Errorf("orrery: textures already requested")
	}
	if err := s.validateTextureRequests(reqs); err != nil {
		return err
	}
	s.requested = true
	s.ready = false
	s.textureReqs = append(s.textureReqs[:0], reqs...)

	// The channel has room for the single notification the barrier sends.
	b := newReadyBarrier(len(reqs), func(err error) { s.readyCh <- err })

	var errs []error
	for _, req := range reqs {
		done := b.member()
		tex, err := loader.LoadTexture(req.Path, done)
		if err != nil {
			err = fmt.Errorf("orrery: load texture %q: %w", req.Name, err)
			errs = append(errs, err)
			done(err)
			continue
		}
		s.textures[req.Name] = tex
	}
	Logger().Info("textures requested", "count", len(reqs))
	return errors.Join(errs...)
}

func (s *Scene) validateTextureRequests(reqs []TextureRequest) error {
	names := make(map[string]bool, len(reqs))
	units := make(map[string]map[int]string)
	for _, req := range reqs {
		if req.Name == "" {
			return fmt.Errorf("orrery: texture request for %q has no name", req.Path)
		}
		if names[req.Name] {
			return fmt.Errorf("orrery: duplicate texture %q", req.Name)
		}
		names[req.Name] = true
		if _, ok := s.programs[req.Program]; !ok {
			return fmt.Errorf("orrery: texture %q: unknown program %q", req.Name, req.Program)
		}
		if req.Unit < 0 {
			return fmt.Errorf("orrery: texture %q: negative texture unit %d", req.Name, req.Unit)
		}
		if units[req.Program] == nil {
			units[req.Program] = make(map[int]string)
		}
		if other, ok := units[req.Program][req.Unit]; ok {
			return fmt.Errorf("orrery: textures %q and %q share unit %d of program %q",
				other, req.Name, req.Unit, req.Program)
		}
		units[req.Program][req.Unit] = req.Name
	}
	return nil
}

// Texture returns the texture registered under name, or nil.
func (s *Scene) Texture(name string) Texture {
	return s.textures[name]
}

// Ready reports whether every requested texture has loaded and been bound.
func (s *Scene) Ready() bool {
	return s.ready
}

// Update processes the all-textures-ready notification, if it has arrived.
// Call it once per tick from the render thread. On the tick the barrier
// fires, Update binds the textures and returns the result of the first Draw.
func (s *Scene) Update() error {
	select {
	case err := <-s.readyCh:
		return s.texturesReady(err)
	default:
		return nil
	}
}

func (s *Scene) texturesReady(err error) error {
	if err != nil {
		Logger().Error("texture loading failed", "err", err)
		return fmt.Errorf("orrery: textures: %w", err)
	}
	for _, req := range s.textureReqs {
		p := s.programs[req.Program]
		p.Use()
		p.SetTexture(req.Uniform, req.Unit, s.textures[req.Name])
	}
	s.ready = true
	Logger().Info("textures ready", "count", len(s.textureReqs))
	return s.Draw()
}

// --- Transforms ---

// Camera returns the scene camera.
func (s *Scene) Camera() Camera {
	return s.camera
}

// SetCamera replaces the scene camera. Takes effect on the next Draw.
func (s *Scene) SetCamera(c Camera) {
	s.camera = c
}

// CameraTransform returns the camera (view) transformation.
func (s *Scene) CameraTransform() mgl32.Mat4 {
	return s.camera.View()
}

// World returns the world transformation.
func (s *Scene) World() mgl32.Mat4 {
	return s.world
}

// SetWorld replaces the world transformation. Takes effect on the next Draw.
func (s *Scene) SetWorld(m mgl32.Mat4) {
	s.world = m
}

// Rotate composes a rotation of degrees about a named world axis ("worldX"
// or "worldY") into the world transformation and redraws immediately.
//
// An unknown axis or a NaN or infinite angle is logged and ignored: the
// world transformation is left unchanged, nothing is drawn and nil is
// returned. A redraw refused because textures are still loading is
// absorbed; the deferred first frame shows the rotation. Any other redraw
// failure restores the previous world transformation and is returned.
func (s *Scene) Rotate(axis string, degrees float64) error {
	v, ok := rotationAxes[axis]
	if !ok {
		Logger().Warn("rotation axis not implemented", "axis", axis, "err", ErrUnknownAxis)
		return nil
	}
	rad := mgl32.DegToRad(float32(degrees))
	if math.IsNaN(degrees) || math.IsInf(float64(rad), 0) {
		Logger().Warn("rotation angle ignored", "axis", axis, "degrees", degrees, "err", ErrInvalidAngle)
		return nil
	}
	Logger().Debug("rotating", "axis", axis, "degrees", degrees)

	prev := s.world
	s.world = s.world.Mul4(mgl32.HomogRotate3D(rad, v))

	if err := s.Draw(); err != nil && !errors.Is(err, ErrNotReady) {
		s.world = prev
		return err
	}
	return nil
}

// --- Tree ---

// Root returns the root node, or nil if none has been set.
func (s *Scene) Root() *Node {
	return s.root
}

// SetRoot sets the root node. The root is drawn with no inherited program,
// so it must carry its own.
func (s *Scene) SetRoot(n *Node) {
	s.root = n
}

// --- Draw options ---

// Options returns the scene's draw options.
func (s *Scene) Options() *DrawOptions {
	return s.options
}

// BindVisibility makes node's visibility follow option on every Draw.
func (s *Scene) BindVisibility(option string, node *Node) error {
	if _, ok := s.options.Get(option); !ok {
		return fmt.Errorf("orrery: bind visibility: unknown draw option %q", option)
	}
	if node == nil {
		return fmt.Errorf("orrery: bind visibility: option %q: nil node", option)
	}
	s.visBindings = append(s.visBindings, visibilityBinding{option: option, node: node})
	return nil
}

// BindUniform makes the bool uniform of program follow option on every Draw.
func (s *Scene) BindUniform(option, program, uniform string) error {
	if _, ok := s.options.Get(option); !ok {
		return fmt.Errorf("orrery: bind uniform: unknown draw option %q", option)
	}
	if _, ok := s.programs[program]; !ok {
		return fmt.Errorf("orrery: bind uniform: option %q: unknown program %q", option, program)
	}
	s.uniBindings = append(s.uniBindings, uniformBinding{option: option, program: program, uniform: uniform})
	return nil
}

// applyOptions pushes the current option values into node visibility and
// program uniforms.
func (s *Scene) applyOptions() {
	for _, b := range s.visBindings {
		v, _ := s.options.Get(b.option)
		b.node.Visible = v
	}
	for _, b := range s.uniBindings {
		v, _ := s.options.Get(b.option)
		p := s.programs[b.program]
		p.Use()
		p.SetUniform(b.uniform, UniformBool(v))
	}
}

// --- Frame ---

// Draw renders one frame: projection from the viewport aspect, model-view
// from camera and world, frame-global uniforms to every program, clear,
// depth test, draw options, then the root traversal.
//
// Before the texture barrier has fired Draw issues no GPU calls and returns
// ErrNotReady. A traversal failure aborts the frame and is returned.
func (s *Scene) Draw() error {
	if !s.ready {
		Logger().Debug("draw deferred until textures are ready")
		return ErrNotReady
	}
	if s.root == nil {
		return fmt.Errorf("orrery: scene has no root node")
	}
	start := time.Now()

	w, h := s.ctx.Viewport()
	projection := s.camera.Projection(aspectRatio(w, h))
	modelView := s.camera.View().Mul4(s.world)

	for _, name := range s.programNames {
		p := s.programs[name]
		p.Use()
		p.SetUniform(UniformProjection, UniformMat4(projection))
	}

	s.ctx.Clear(s.ClearColor)
	s.ctx.EnableDepthTest(DepthLess)

	s.applyOptions()

	var st FrameStats
	t0 := time.Now()
	err := s.root.draw(nil, modelView, &st)
	st.TraverseTime = time.Since(t0)
	st.FrameTime = time.Since(start)

	s.stats = st
	if err != nil {
		return err
	}
	s.frames++
	if s.frames == 1 {
		Logger().Info("first frame drawn", "drawCalls", st.DrawCalls)
	}
	s.debugLog(st)
	return nil
}

// Stats returns the metrics of the most recent Draw.
func (s *Scene) Stats() FrameStats {
	return s.stats
}

// Frames returns the number of frames drawn successfully.
func (s *Scene) Frames() int {
	return s.frames
}

// SetDebugMode enables or disables debug mode. When enabled, per-frame stats
// are logged at debug level and tree depth and child count warnings are
// logged while the tree is built. The tree checks read a package-wide flag,
// so with several scenes the last call wins for every node.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

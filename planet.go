package orrery

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/orrery/parametric"
)

// Device creates GPU resources: it links programs, uploads meshes and loads
// textures. Backends implement it alongside RenderContext.
type Device interface {
	TextureLoader
	// LinkProgram compiles and links the program with the given name.
	LinkProgram(name string) (Program, error)
	// UploadMesh uploads CPU-side mesh data.
	UploadMesh(name string, data *parametric.Mesh) (Mesh, error)
}

// Program and node names used by the planet scene.
const (
	ProgramPhong  = "phong"
	ProgramPlanet = "planet"

	NodeUniverse = "Universe"
	NodeSunlight = "Sunlight"
	NodePlanet   = "Planet"
	NodeRing     = "Ring"
)

// planetUniformBindings maps draw options to bool uniforms of the planet program.
var planetUniformBindings = []struct{ option, uniform string }{
	{OptionDebug, "debug"},
	{OptionDaytimeTexture, "worldTexture"},
	{OptionNightLights, "night"},
	{OptionRedGreen, "redgreen"},
	{OptionGlossyMap, "glossy"},
	{OptionClouds, "clouds"},
}

// NewPlanetScene builds the planet scene: a Phong-lit equator ring and a
// textured planet under a directional sun. Textures are requested from dev
// immediately; the first frame is drawn by the Update that observes them all
// loaded.
//
// Draw options not named in cfg are not created, and their bindings are
// skipped.
func NewPlanetScene(ctx RenderContext, dev Device, cfg Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := NewScene(ctx)
	s.SetCamera(cfg.CameraValue())
	s.ClearColor = Color{cfg.ClearColor[0], cfg.ClearColor[1], cfg.ClearColor[2], cfg.ClearColor[3]}

	// Programs, each with the constant ambient term set once.
	for _, name := range []string{ProgramPhong, ProgramPlanet} {
		p, err := dev.LinkProgram(name)
		if err != nil {
			return nil, fmt.Errorf("orrery: link %s: %w", name, err)
		}
		if err := s.AddProgram(name, p); err != nil {
			return nil, err
		}
		p.Use()
		p.SetUniform(UniformAmbient, UniformVec3(cfg.Ambient))
	}
	phong := s.Program(ProgramPhong)
	planet := s.Program(ProgramPlanet)

	// Sun.
	sun := NewDirectionalLight("light", cfg.Light.Direction, cfg.Light.Color, phong, planet)
	sunNode := NewNode(NodeSunlight, nil, sun)

	// Equator ring, rotated into the X-Z plane.
	ringData, err := parametric.Torus(1.2, 0.04, parametric.Segments{U: 80, V: 40})
	if err != nil {
		return nil, err
	}
	ringMesh, err := dev.UploadMesh("ring", ringData)
	if err != nil {
		return nil, fmt.Errorf("orrery: upload ring: %w", err)
	}
	ringMaterial := NewPhongMaterial("material",
		mgl32.Vec3{0.2, 0.2, 0.2}, mgl32.Vec3{0.1, 0.1, 1.0}, mgl32.Vec3{0.4, 0.4, 0.4}, 80)
	ringNode := NewNode(NodeRing, phong, ringMaterial, NewGeometry("ring", ringMesh))
	ringNode.Rotate(math.Pi/2, AxisX)

	// Planet, rotated so its poles are on the Y axis.
	planetData, err := parametric.Sphere(1.0, parametric.Segments{U: 80, V: 80})
	if err != nil {
		return nil, err
	}
	planetMesh, err := dev.UploadMesh("planet", planetData)
	if err != nil {
		return nil, fmt.Errorf("orrery: upload planet: %w", err)
	}
	planetMaterial := NewPhongMaterial("material",
		mgl32.Vec3{0.2, 0.2, 0.2}, mgl32.Vec3{0.8, 0.2, 0.2}, mgl32.Vec3{0.4, 0.4, 0.4}, 80)
	planetNode := NewNode(NodePlanet, planet, planetMaterial, NewGeometry("planet", planetMesh))
	planetNode.Rotate(math.Pi/2, AxisX)

	universe := NewNode(NodeUniverse, phong)
	universe.AddChild(sunNode)
	universe.AddChild(planetNode)
	universe.AddChild(ringNode)
	s.SetRoot(universe)

	// Draw options and what they drive.
	for _, o := range cfg.Options {
		if err := s.Options().Add(o.Name, o.Value); err != nil {
			return nil, err
		}
	}
	for option, node := range map[string]*Node{OptionShowPlanet: planetNode, OptionShowRing: ringNode} {
		if _, ok := s.Options().Get(option); ok {
			if err := s.BindVisibility(option, node); err != nil {
				return nil, err
			}
		}
	}
	for _, b := range planetUniformBindings {
		if _, ok := s.Options().Get(b.option); ok {
			if err := s.BindUniform(b.option, ProgramPlanet, b.uniform); err != nil {
				return nil, err
			}
		}
	}

	// Textures last: with a synchronous loader the barrier may fire at once.
	reqs := make([]TextureRequest, len(cfg.Textures))
	for i, t := range cfg.Textures {
		reqs[i] = TextureRequest{
			Name:    t.Name,
			Path:    cfg.TexturePath(t),
			Program: ProgramPlanet,
			Uniform: t.Uniform,
			Unit:    t.Unit,
		}
	}
	if err := s.RequestTextures(dev, reqs); err != nil {
		return nil, err
	}
	return s, nil
}

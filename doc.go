// Package orrery is a small retained-mode 3D rendering core: a scene graph of
// nodes carrying transforms, shader programs and Phong attachments, driven by
// a Scene that owns the camera, the world transform, textures and a set of
// named draw options.
//
// The package is backend-neutral. GPU work goes through the [RenderContext],
// [Program], [Mesh] and [TextureLoader] interfaces; orrery/ebitengpu
// implements them on [Ebitengine] with Kage shaders.
//
// # Quick start
//
// [NewPlanetScene] assembles the stock scene (a textured planet with an
// equator ring under a directional sun) from a [Config]:
//
//	cfg, err := orrery.LoadConfigFile("planet.toml")
//	// ...
//	dev := ebitengpu.NewDevice(ebitengpu.DeviceConfig{Width: 640, Height: 480})
//	scene, err := orrery.NewPlanetScene(dev, dev, cfg)
//
// Call [Scene.Update] every tick. The first frame is drawn by the Update that
// observes every requested texture loaded; until then [Scene.Draw] returns
// [ErrNotReady] without issuing GPU calls.
//
// # Scene graph
//
// Every drawable is a [Node]. A node's effective program is its own, or the
// nearest ancestor's. Transforms compose parent-first, so a child's
// model-view matrix is parent * local. An invisible node hides its whole
// subtree.
//
//	root := orrery.NewNode("Universe", phong)
//	planet := orrery.NewNode("Planet", planetProgram,
//		orrery.NewPhongMaterial("material", amb, diff, spec, 80),
//		orrery.NewGeometry("planet", mesh))
//	root.AddChild(planet)
//
// # Frame
//
// [Scene.Draw] computes the projection from the viewport aspect ratio and
// the model-view from the camera and world transforms, sends the projection
// to every program, clears, applies draw options and walks the tree.
// [Scene.Rotate] composes a rotation about a named world axis and redraws.
//
// Tree misuse (cycles, out-of-range indices, nil children) panics with an
// "orrery:" message. Everything else is reported through error returns and
// the [log/slog] logger installed with [SetLogger].
//
// [Ebitengine]: https://ebitengine.org
package orrery

package orrery

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// newTestScene returns a scene with one program "p" and a root drawing a
// single mesh.
func newTestScene(t *testing.T) (*Scene, *gpuLog, *fakeProgram, *fakeMesh) {
	t.Helper()
	log := &gpuLog{}
	s := NewScene(newFakeContext(log))
	p := newFakeProgram("p", log)
	if err := s.AddProgram("p", p); err != nil {
		t.Fatal(err)
	}
	mesh := newTestMesh("m", log)
	s.SetRoot(NewNode("root", p, NewGeometry("m", mesh)))
	return s, log, p, mesh
}

func TestNewSceneDefaults(t *testing.T) {
	s := NewScene(newFakeContext(&gpuLog{}))
	if !s.Ready() {
		t.Error("scene without texture requests should be ready")
	}
	assertMat4(t, "world", s.World(), mgl32.Ident4())
	if s.ClearColor != ColorBlack {
		t.Errorf("ClearColor = %v, want black", s.ClearColor)
	}
	if s.Camera() != DefaultCamera() {
		t.Error("camera should default to DefaultCamera")
	}
}

func TestAddProgramValidation(t *testing.T) {
	log := &gpuLog{}
	s := NewScene(newFakeContext(log))
	if err := s.AddProgram("", newFakeProgram("x", log)); err == nil {
		t.Error("empty name should fail")
	}
	if err := s.AddProgram("x", nil); err == nil {
		t.Error("nil program should fail")
	}
	if err := s.AddProgram("x", newFakeProgram("x", log)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddProgram("x", newFakeProgram("x", log)); !errors.Is(err, ErrDuplicateProgram) {
		t.Errorf("err = %v, want ErrDuplicateProgram", err)
	}
	if s.Program("missing") != nil {
		t.Error("unknown program should be nil")
	}
}

func TestSceneDrawFrameSetup(t *testing.T) {
	log := &gpuLog{}
	ctx := newFakeContext(log)
	s := NewScene(ctx)
	a := newFakeProgram("a", log)
	b := newFakeProgram("b", log)
	_ = s.AddProgram("a", a)
	_ = s.AddProgram("b", b)
	s.SetRoot(NewNode("root", a))
	s.ClearColor = Color{0.1, 0.2, 0.3, 1}

	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}

	want := s.Camera().Projection(640.0 / 480.0)
	assertMat4(t, "a projection", a.mat4Uniform(t, UniformProjection), want)
	assertMat4(t, "b projection", b.mat4Uniform(t, UniformProjection), want)

	// Programs receive the projection in registration order, before clear.
	prefix := []string{"use a", "set a.projectionMatrix", "use b", "set b.projectionMatrix", "clear", "depth LESS"}
	for i, c := range prefix {
		if i >= len(log.calls) || log.calls[i] != c {
			t.Fatalf("calls = %v, want prefix %v", log.calls, prefix)
		}
	}
	if len(ctx.clears) != 1 || ctx.clears[0] != s.ClearColor {
		t.Errorf("clears = %v", ctx.clears)
	}
	if s.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", s.Frames())
	}
}

func TestSceneDrawProjectionFollowsViewport(t *testing.T) {
	s, _, p, _ := newTestScene(t)
	ctx := s.ctx.(*fakeContext)
	ctx.w, ctx.h = 200, 100
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	assertMat4(t, "projection", p.mat4Uniform(t, UniformProjection), s.Camera().Projection(2))
}

func TestSceneDrawModelViewIsCameraTimesWorld(t *testing.T) {
	s, _, _, mesh := newTestScene(t)
	s.SetWorld(mgl32.HomogRotate3D(0.3, AxisY))
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	assertMat4(t, "modelView", mesh.modelViews[0], s.CameraTransform().Mul4(s.World()))
}

func TestSceneDrawNoRoot(t *testing.T) {
	s := NewScene(newFakeContext(&gpuLog{}))
	if err := s.Draw(); err == nil {
		t.Error("Draw without root should fail")
	}
}

func TestSceneDrawConfigErrorAbortsFrame(t *testing.T) {
	log := &gpuLog{}
	s := NewScene(newFakeContext(log))
	s.SetRoot(NewNode("root", nil))
	err := s.Draw()
	if !errors.Is(err, ErrNoProgram) {
		t.Fatalf("err = %v, want ErrNoProgram", err)
	}
	if s.Frames() != 0 {
		t.Error("failed frame should not count")
	}
}

// --- Rotate ---

func TestRotateRoundTrip(t *testing.T) {
	s, _, _, _ := newTestScene(t)
	if err := s.Rotate("worldY", 90); err != nil {
		t.Fatal(err)
	}
	rotated := s.World()
	assertMat4(t, "after +90", rotated, mgl32.HomogRotate3D(halfPi, AxisY))

	if err := s.Rotate("worldY", -90); err != nil {
		t.Fatal(err)
	}
	assertMat4(t, "after -90", s.World(), mgl32.Ident4())
	if s.Frames() != 2 {
		t.Errorf("Frames = %d, want 2 (one redraw per rotation)", s.Frames())
	}
}

func TestRotateWorldXComposesOnRight(t *testing.T) {
	s, _, _, _ := newTestScene(t)
	_ = s.Rotate("worldY", 90)
	_ = s.Rotate("worldX", 45)
	want := mgl32.HomogRotate3D(halfPi, AxisY).Mul4(mgl32.HomogRotate3D(halfPi/2, AxisX))
	assertMat4(t, "world", s.World(), want)
}

func TestRotateUnknownAxisIgnored(t *testing.T) {
	s, log, _, _ := newTestScene(t)
	s.SetWorld(mgl32.HomogRotate3D(0.5, AxisX))
	before := s.World()

	if err := s.Rotate("worldZ", 90); err != nil {
		t.Errorf("unknown axis should not return an error, got %v", err)
	}
	if s.World() != before {
		t.Error("world transform changed")
	}
	if len(log.calls) != 0 || s.Frames() != 0 {
		t.Error("unknown axis should not redraw")
	}
}

func TestRotateNonFiniteAngleIgnored(t *testing.T) {
	s, log, _, _ := newTestScene(t)
	s.SetWorld(mgl32.HomogRotate3D(0.5, AxisX))
	before := s.World()

	for _, deg := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300} {
		if err := s.Rotate("worldY", deg); err != nil {
			t.Errorf("Rotate(%v) = %v, want nil", deg, err)
		}
	}
	if s.World() != before {
		t.Errorf("world transform changed: %v", s.World())
	}
	if len(log.calls) != 0 || s.Frames() != 0 {
		t.Error("non-finite angle should not redraw")
	}

	if err := s.Rotate("worldY", 90); err != nil {
		t.Fatal(err)
	}
	want := before.Mul4(mgl32.HomogRotate3D(halfPi, AxisY))
	assertMat4(t, "world after valid rotate", s.World(), want)
}

func TestRotateRestoresWorldWhenDrawFails(t *testing.T) {
	log := &gpuLog{}
	s := NewScene(newFakeContext(log))
	s.SetRoot(NewNode("root", nil))
	before := s.World()

	err := s.Rotate("worldY", 45)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	assertMat4(t, "world", s.World(), before)
}

func TestRotateBeforeReadyDefers(t *testing.T) {
	log := &gpuLog{}
	dev := newFakeDevice(log)
	s := NewScene(newFakeContext(log))
	p := newFakeProgram("p", log)
	_ = s.AddProgram("p", p)
	s.SetRoot(NewNode("root", p))
	if err := s.RequestTextures(dev, []TextureRequest{{Name: "t", Path: "t.png", Program: "p", Uniform: "tex"}}); err != nil {
		t.Fatal(err)
	}

	if err := s.Rotate("worldY", 30); err != nil {
		t.Errorf("Rotate before ready = %v, want nil", err)
	}
	if s.Frames() != 0 || len(log.calls) != 0 {
		t.Error("no GPU calls expected before textures are ready")
	}
	assertMat4(t, "world", s.World(), mgl32.HomogRotate3D(mgl32.DegToRad(30), AxisY))
}

// --- Texture barrier ---

func TestTextureBarrierDefersFirstDraw(t *testing.T) {
	log := &gpuLog{}
	dev := newFakeDevice(log)
	s := NewScene(newFakeContext(log))
	p := newFakeProgram("p", log)
	_ = s.AddProgram("p", p)
	s.SetRoot(NewNode("root", p))

	reqs := []TextureRequest{
		{Name: "day", Path: "day.jpg", Program: "p", Uniform: "dayTex", Unit: 0},
		{Name: "night", Path: "night.jpg", Program: "p", Uniform: "nightTex", Unit: 1},
		{Name: "clouds", Path: "clouds.jpg", Program: "p", Uniform: "cloudTex", Unit: 2},
	}
	if err := s.RequestTextures(dev, reqs); err != nil {
		t.Fatal(err)
	}
	if s.Ready() {
		t.Fatal("scene should not be ready while loads are pending")
	}
	if err := s.Draw(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Draw = %v, want ErrNotReady", err)
	}

	dev.finish(t, "day.jpg", nil)
	dev.finish(t, "clouds.jpg", nil)
	if err := s.Update(); err != nil {
		t.Fatal(err)
	}
	if s.Ready() || s.Frames() != 0 || len(log.calls) != 0 {
		t.Fatal("partial completion must not draw")
	}

	dev.finish(t, "night.jpg", nil)
	if err := s.Update(); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() {
		t.Fatal("scene should be ready")
	}
	if s.Frames() != 1 {
		t.Errorf("Frames = %d, want exactly 1 after the barrier", s.Frames())
	}
	for _, r := range reqs {
		b, ok := p.textures[r.Uniform]
		if !ok {
			t.Errorf("%s not bound", r.Uniform)
			continue
		}
		if b.unit != r.Unit || b.tex != s.Texture(r.Name) {
			t.Errorf("%s bound to unit %d, want %d", r.Uniform, b.unit, r.Unit)
		}
		if !b.tex.Loaded() {
			t.Errorf("%s bound before loaded", r.Uniform)
		}
	}

	// The barrier fires once: later Updates do nothing.
	if err := s.Update(); err != nil {
		t.Fatal(err)
	}
	if s.Frames() != 1 {
		t.Errorf("Frames = %d after extra Update, want 1", s.Frames())
	}
}

func TestTextureBarrierConcurrentCompletion(t *testing.T) {
	log := &gpuLog{}
	dev := newFakeDevice(log)
	s := NewScene(newFakeContext(log))
	p := newFakeProgram("p", log)
	_ = s.AddProgram("p", p)
	s.SetRoot(NewNode("root", p))

	var reqs []TextureRequest
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		reqs = append(reqs, TextureRequest{Name: name, Path: name + ".png", Program: "p", Uniform: name, Unit: i})
	}
	if err := s.RequestTextures(dev, reqs); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	for _, r := range reqs {
		go func(path string) {
			dev.finish(t, path, nil)
			done <- struct{}{}
		}(r.Path)
	}
	for range reqs {
		<-done
	}

	if err := s.Update(); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() || s.Frames() != 1 {
		t.Errorf("ready=%v frames=%d, want ready with one frame", s.Ready(), s.Frames())
	}
}

func TestTextureLoadFailureReported(t *testing.T) {
	log := &gpuLog{}
	dev := newFakeDevice(log)
	s := NewScene(newFakeContext(log))
	p := newFakeProgram("p", log)
	_ = s.AddProgram("p", p)
	s.SetRoot(NewNode("root", p))

	_ = s.RequestTextures(dev, []TextureRequest{
		{Name: "a", Path: "a.png", Program: "p", Uniform: "a", Unit: 0},
		{Name: "b", Path: "b.png", Program: "p", Uniform: "b", Unit: 1},
	})
	loadErr := errors.New("decode failed")
	dev.finish(t, "a.png", loadErr)
	dev.finish(t, "b.png", nil)

	err := s.Update()
	if !errors.Is(err, loadErr) {
		t.Fatalf("Update = %v, want load error", err)
	}
	if s.Ready() || s.Frames() != 0 {
		t.Error("failed load must not make the scene ready")
	}
}

func TestTextureSynchronousLoadError(t *testing.T) {
	log := &gpuLog{}
	dev := newFakeDevice(log)
	loadErr := errors.New("no such file")
	dev.failLoad["missing.png"] = loadErr
	s := NewScene(newFakeContext(log))
	_ = s.AddProgram("p", newFakeProgram("p", log))

	err := s.RequestTextures(dev, []TextureRequest{
		{Name: "missing", Path: "missing.png", Program: "p", Uniform: "m", Unit: 0},
	})
	if !errors.Is(err, loadErr) {
		t.Fatalf("RequestTextures = %v, want load error", err)
	}
	// The failed member still counts toward the barrier.
	if err := s.Update(); !errors.Is(err, loadErr) {
		t.Errorf("Update = %v, want load error", err)
	}
}

func TestRequestTexturesValidation(t *testing.T) {
	log := &gpuLog{}
	cases := []struct {
		name string
		reqs []TextureRequest
	}{
		{"no name", []TextureRequest{{Path: "a", Program: "p", Uniform: "u"}}},
		{"duplicate", []TextureRequest{
			{Name: "a", Path: "a", Program: "p", Uniform: "u", Unit: 0},
			{Name: "a", Path: "b", Program: "p", Uniform: "v", Unit: 1},
		}},
		{"unknown program", []TextureRequest{{Name: "a", Path: "a", Program: "q", Uniform: "u"}}},
		{"negative unit", []TextureRequest{{Name: "a", Path: "a", Program: "p", Uniform: "u", Unit: -1}}},
		{"shared unit", []TextureRequest{
			{Name: "a", Path: "a", Program: "p", Uniform: "u", Unit: 2},
			{Name: "b", Path: "b", Program: "p", Uniform: "v", Unit: 2},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScene(newFakeContext(log))
			_ = s.AddProgram("p", newFakeProgram("p", log))
			if err := s.RequestTextures(newFakeDevice(log), tc.reqs); err == nil {
				t.Error("expected error")
			}
			if !s.Ready() {
				t.Error("rejected request should leave the scene ready")
			}
		})
	}
}

func TestRequestTexturesOnce(t *testing.T) {
	log := &gpuLog{}
	s := NewScene(newFakeContext(log))
	_ = s.AddProgram("p", newFakeProgram("p", log))
	dev := newFakeDevice(log)
	if err := s.RequestTextures(dev, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.RequestTextures(dev, nil); err == nil {
		t.Error("second request should fail")
	}
}

func TestRequestNoTexturesFiresImmediately(t *testing.T) {
	s, _, _, _ := newTestScene(t)
	if err := s.RequestTextures(newFakeDevice(&gpuLog{}), nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Update(); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() || s.Frames() != 1 {
		t.Errorf("ready=%v frames=%d, want ready after the first Update", s.Ready(), s.Frames())
	}
}

// --- Draw options ---

func TestBindVisibilityFollowsOption(t *testing.T) {
	log := &gpuLog{}
	s := NewScene(newFakeContext(log))
	p := newFakeProgram("p", log)
	_ = s.AddProgram("p", p)
	ringMesh := newTestMesh("ring", log)
	planetMesh := newTestMesh("planet", log)
	ring := NewNode("Ring", nil, NewGeometry("ring", ringMesh))
	planet := NewNode("Planet", nil, NewGeometry("planet", planetMesh))
	s.SetRoot(NewGroup("", ring, planet))
	s.Root().Program = p

	_ = s.Options().Add("Show Ring", false)
	_ = s.Options().Add("Debug", true)
	if err := s.BindVisibility("Show Ring", ring); err != nil {
		t.Fatal(err)
	}
	if err := s.BindUniform("Debug", "p", "debug"); err != nil {
		t.Fatal(err)
	}

	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	if ring.Visible || len(ringMesh.programs) != 0 {
		t.Error("ring should be hidden")
	}
	debugWrites := p.writes["debug"]

	if _, err := s.Options().Toggle("Show Ring"); err != nil {
		t.Fatal(err)
	}
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	if !ring.Visible || len(ringMesh.programs) != 1 {
		t.Error("ring should be drawn after toggling")
	}
	if !planet.Visible || len(planetMesh.programs) != 2 {
		t.Error("planet should be unaffected")
	}
	if !p.boolUniform(t, "debug") {
		t.Error("unrelated uniform changed value")
	}
	if p.writes["debug"] != debugWrites+1 {
		t.Errorf("debug written %d times, want one write per frame", p.writes["debug"]-debugWrites)
	}
}

func TestBindUniformWritesBool(t *testing.T) {
	s, _, p, _ := newTestScene(t)
	_ = s.Options().Add("Night Lights", false)
	if err := s.BindUniform("Night Lights", "p", "night"); err != nil {
		t.Fatal(err)
	}
	_ = s.Draw()
	if p.boolUniform(t, "night") {
		t.Error("night should be false")
	}
	_ = s.Options().Set("Night Lights", true)
	_ = s.Draw()
	if !p.boolUniform(t, "night") {
		t.Error("night should be true")
	}
}

func TestBindValidation(t *testing.T) {
	s, _, _, _ := newTestScene(t)
	_ = s.Options().Add("x", true)
	if err := s.BindVisibility("missing", s.Root()); err == nil {
		t.Error("unknown option should fail")
	}
	if err := s.BindVisibility("x", nil); err == nil {
		t.Error("nil node should fail")
	}
	if err := s.BindUniform("missing", "p", "u"); err == nil {
		t.Error("unknown option should fail")
	}
	if err := s.BindUniform("x", "q", "u"); err == nil {
		t.Error("unknown program should fail")
	}
}

func TestSetDebugModeLogsStats(t *testing.T) {
	s, _, _, _ := newTestScene(t)
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	st := s.Stats()
	if st.NodesVisited != 1 || st.DrawCalls != 1 {
		t.Errorf("stats = %+v, want 1 visited, 1 draw call", st)
	}
	if st.FrameTime < st.TraverseTime {
		t.Error("frame time should include traversal time")
	}
}

func TestSetDebugModeLastCallWins(t *testing.T) {
	a := NewScene(newFakeContext(&gpuLog{}))
	b := NewScene(newFakeContext(&gpuLog{}))
	defer a.SetDebugMode(false)

	a.SetDebugMode(true)
	b.SetDebugMode(false)
	if globalDebug {
		t.Error("tree checks should follow the most recent SetDebugMode call")
	}
	if !a.debug {
		t.Error("per-scene stats flag should stay with its scene")
	}
}

package ebitengpu

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/phanxgames/orrery"
	"github.com/tanema/gween/ease"
)

// Key binding defaults.
const (
	DefaultRotateStep     = 5    // degrees per key press
	DefaultRotateDuration = 0.15 // seconds a key rotation is eased over

	maxOptionKeys = 8
)

// optionKeys toggle the draw options in registration order.
var optionKeys = [maxOptionKeys]ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8,
}

// RunConfig configures the window and the interactive controls.
type RunConfig struct {
	Title         string
	Width, Height int
	// ScreenshotDir receives PNGs from the S key and script screenshot
	// steps. Defaults to DefaultScreenshotDir.
	ScreenshotDir string
	// ShowHUD shows the overlay at startup. H toggles it.
	ShowHUD bool
	// Script, if set, is stepped once per tick after the scene is ready.
	Script *orrery.ScriptRunner
	// ExitOnScriptDone ends the game once Script finishes.
	ExitOnScriptDone bool
	// RotateStep is the degrees rotated per key press. Defaults to
	// DefaultRotateStep.
	RotateStep float32
}

// Game adapts a Scene to ebiten.Game. The scene redraws only on events
// (texture readiness, rotations, option changes, resizes); every other
// tick re-presents the last frame.
type Game struct {
	scene *orrery.Scene
	dev   *Device
	cfg   RunConfig

	tweens  []*orrery.RotationTween
	hud     hud
	shots   screenshots
	resized bool
}

// NewGame wires scene and dev into a game. dev must be the context the
// scene was built on.
func NewGame(scene *orrery.Scene, dev *Device, cfg RunConfig) *Game {
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = DefaultScreenshotDir
	}
	if cfg.RotateStep == 0 {
		cfg.RotateStep = DefaultRotateStep
	}
	return &Game{
		scene: scene,
		dev:   dev,
		cfg:   cfg,
		hud:   hud{visible: cfg.ShowHUD},
		shots: screenshots{dir: cfg.ScreenshotDir},
	}
}

// Screenshot queues a PNG of the canvas at the end of the next Draw.
func (g *Game) Screenshot(label string) {
	g.shots.add(label)
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	dt := float32(1) / float32(ebiten.TPS())

	if err := g.scene.Update(); err != nil {
		return err
	}
	if g.resized && g.scene.Ready() {
		g.resized = false
		if err := g.scene.Draw(); err != nil {
			return err
		}
	}

	changed, err := g.handleKeys()
	if err != nil {
		return err
	}

	live := g.tweens[:0]
	for _, t := range g.tweens {
		if err := t.Update(dt); err != nil {
			return err
		}
		if !t.Done {
			live = append(live, t)
		}
	}
	g.tweens = live

	if g.cfg.Script != nil {
		if err := g.cfg.Script.Step(g.scene, dt, g.Screenshot); err != nil {
			return err
		}
		if g.cfg.ExitOnScriptDone && g.cfg.Script.Done() && len(g.shots.queue) == 0 {
			return ebiten.Termination
		}
	}

	g.hud.update(float64(dt), changed, g.scene)
	return nil
}

// handleKeys applies the key bindings and reports whether an option changed.
func (g *Game) handleKeys() (bool, error) {
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	for _, k := range []ebiten.Key{ebiten.KeyY, ebiten.KeyX} {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		if axis, deg, ok := keyRotation(k, shift, g.cfg.RotateStep); ok {
			g.tweens = append(g.tweens,
				orrery.TweenRotation(g.scene, axis, deg, DefaultRotateDuration, ease.OutQuad))
		}
	}

	changed := false
	for i, k := range optionKeys {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		name, ok := optionForIndex(g.scene.Options(), i)
		if !ok {
			continue
		}
		v, err := g.scene.Options().Toggle(name)
		if err != nil {
			return changed, err
		}
		orrery.Logger().Info("draw option toggled", "option", name, "value", v)
		changed = true
		if err := g.scene.Draw(); err != nil && !errors.Is(err, orrery.ErrNotReady) {
			return changed, err
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Screenshot("key")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.hud.visible = !g.hud.visible
		changed = true
	}
	return changed, nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.dev.Present(screen)
	g.shots.flush(g.dev.Canvas())
	g.hud.draw(screen)
}

// Layout implements ebiten.Game. The canvas follows the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.dev.Resize(outsideWidth, outsideHeight) {
		g.resized = true
	}
	return g.dev.Viewport()
}

// keyRotation maps a rotation key to an axis and signed angle. Shift
// reverses the direction.
func keyRotation(k ebiten.Key, shift bool, step float32) (axis string, degrees float32, ok bool) {
	switch k {
	case ebiten.KeyY:
		axis = "worldY"
	case ebiten.KeyX:
		axis = "worldX"
	default:
		return "", 0, false
	}
	if shift {
		step = -step
	}
	return axis, step, true
}

// optionForIndex returns the name of the i-th registered option.
func optionForIndex(opts *orrery.DrawOptions, i int) (string, bool) {
	names := opts.Names()
	if i < 0 || i >= len(names) {
		return "", false
	}
	return names[i], true
}

// Run opens a window and runs scene until the window closes or the script
// finishes with ExitOnScriptDone.
func Run(scene *orrery.Scene, dev *Device, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = dev.Viewport()
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(NewGame(scene, dev, cfg)); err != nil {
		return fmt.Errorf("ebitengpu: run: %w", err)
	}
	return nil
}

package ebitengpu

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/phanxgames/orrery"
)

// hudRefresh is how often, in seconds, the HUD text is rebuilt.
const hudRefresh = 0.5

// hud is a text overlay with frame rates, frame stats, the draw options and
// the key bindings.
type hud struct {
	visible bool
	text    string
	elapsed float64
	img     *ebiten.Image
}

// update rebuilds the text every hudRefresh seconds, or immediately when
// force is set.
func (h *hud) update(dt float64, force bool, s *orrery.Scene) {
	h.elapsed += dt
	if !force && h.elapsed < hudRefresh && h.text != "" {
		return
	}
	h.elapsed = 0
	h.text = hudText(s.Options(), s.Stats(), s.Frames(), ebiten.ActualFPS(), ebiten.ActualTPS())
}

func (h *hud) draw(screen *ebiten.Image) {
	if !h.visible || h.text == "" {
		return
	}
	lines := strings.Count(h.text, "\n") + 1
	w, ht := 8+6*longestLine(h.text), 4+16*lines
	if h.img == nil || h.img.Bounds().Dx() != w || h.img.Bounds().Dy() != ht {
		if h.img != nil {
			h.img.Deallocate()
		}
		h.img = ebiten.NewImage(w, ht)
	}
	h.img.Clear()
	// Semi-transparent background for readability
	h.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(h.img, h.text)
	screen.DrawImage(h.img, nil)
}

// hudText formats the overlay. Options are numbered from 1 in registration
// order, matching the number keys that toggle them.
func hudText(opts *orrery.DrawOptions, stats orrery.FrameStats, frames int, fps, tps float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FPS: %.1f  TPS: %.1f\n", fps, tps)
	fmt.Fprintf(&b, "frames: %d  draws: %d  nodes: %d\n", frames, stats.DrawCalls, stats.NodesVisited)
	i := 0
	opts.Each(func(name string, value bool) {
		i++
		state := "off"
		if value {
			state = "on"
		}
		if i <= maxOptionKeys {
			fmt.Fprintf(&b, "[%d] %s: %s\n", i, name, state)
		} else {
			fmt.Fprintf(&b, "    %s: %s\n", name, state)
		}
	})
	b.WriteString("Y/X rotate (Shift reverses)  S screenshot  H hide")
	return b.String()
}

func longestLine(s string) int {
	n := 0
	for line := range strings.SplitSeq(s, "\n") {
		n = max(n, len(line))
	}
	return n
}

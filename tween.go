package orrery

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// RotationTween eases a world rotation over time. Each Update rotates the
// scene by the change in the eased angle since the previous Update, so the
// total rotation applied equals the requested degrees once Done.
//
// There is no global animation manager; callers Update tweens themselves.
type RotationTween struct {
	scene   *Scene
	axis    string
	tween   *gween.Tween
	applied float32
	Done    bool
}

// TweenRotation creates a RotationTween that rotates s by degrees about axis
// over duration seconds using the easing function. A nil fn means linear.
func TweenRotation(s *Scene, axis string, degrees, duration float32, fn ease.TweenFunc) *RotationTween {
	if fn == nil {
		fn = ease.Linear
	}
	return &RotationTween{
		scene: s,
		axis:  axis,
		tween: gween.New(0, degrees, duration, fn),
	}
}

// Update advances the tween by dt seconds and applies the rotation delta.
func (t *RotationTween) Update(dt float32) error {
	if t.Done {
		return nil
	}
	angle, finished := t.tween.Update(dt)
	delta := angle - t.applied
	t.applied = angle
	t.Done = finished
	if delta == 0 {
		return nil
	}
	return t.scene.Rotate(t.axis, float64(delta))
}

// Applied returns the rotation in degrees applied so far.
func (t *RotationTween) Applied() float32 {
	return t.applied
}

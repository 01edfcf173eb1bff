package orrery

import (
	"encoding/json"
	"fmt"
	"math"
)

// scriptStep is a single action in a scene script.
type scriptStep struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	Axis    string  `json:"axis,omitempty"`
	Degrees float64 `json:"degrees,omitempty"`
	Seconds float32 `json:"seconds,omitempty"`
	Option  string  `json:"option,omitempty"`
	Value   bool    `json:"value,omitempty"`
	Frames  int     `json:"frames,omitempty"`
}

// sceneScript is the top-level JSON structure for a scene script.
type sceneScript struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner sequences rotations, option changes and screenshots across
// frames. Call Step once per tick after Scene.Update.
//
// Supported actions: rotate, spin, toggle, set, draw, wait, screenshot.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	spin      *RotationTween
	done      bool
}

// LoadScript parses a JSON scene script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var script sceneScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range script.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("parse script: step %d: %w", i, err)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

func (st scriptStep) validate() error {
	switch st.Action {
	case "rotate", "spin":
		if st.Axis == "" {
			return fmt.Errorf("%s needs an axis", st.Action)
		}
		if _, ok := rotationAxes[st.Axis]; !ok {
			return fmt.Errorf("%s axis %q: %w", st.Action, st.Axis, ErrUnknownAxis)
		}
		if math.IsNaN(st.Degrees) || math.IsInf(st.Degrees, 0) {
			return fmt.Errorf("%s: %w", st.Action, ErrInvalidAngle)
		}
		if st.Action == "spin" && st.Seconds <= 0 {
			return fmt.Errorf("spin needs positive seconds")
		}
	case "toggle", "set":
		if st.Option == "" {
			return fmt.Errorf("%s needs an option", st.Action)
		}
	case "draw", "wait", "screenshot":
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// Done reports whether every step has been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Step advances the script by one tick of dt seconds. Nothing runs until s
// is Ready. shot is called for screenshot steps and may be nil.
func (r *ScriptRunner) Step(s *Scene, dt float32, shot func(label string)) error {
	if r.done || !s.Ready() {
		return nil
	}
	// A running spin blocks the script.
	if r.spin != nil {
		if err := r.spin.Update(dt); err != nil {
			return err
		}
		if !r.spin.Done {
			return nil
		}
		r.spin = nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++
	Logger().Debug("script step", "index", r.cursor-1, "action", st.Action)

	var err error
	switch st.Action {
	case "rotate":
		err = s.Rotate(st.Axis, st.Degrees)
	case "spin":
		r.spin = TweenRotation(s, st.Axis, float32(st.Degrees), st.Seconds, nil)
	case "toggle":
		if _, err = s.Options().Toggle(st.Option); err == nil {
			err = s.Draw()
		}
	case "set":
		if err = s.Options().Set(st.Option, st.Value); err == nil {
			err = s.Draw()
		}
	case "draw":
		err = s.Draw()
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this tick counts as one
		}
	case "screenshot":
		if shot != nil {
			shot(st.Label)
		}
	}
	if err != nil {
		return fmt.Errorf("script step %d (%s): %w", r.cursor-1, st.Action, err)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && r.spin == nil {
		r.done = true
	}
	return nil
}

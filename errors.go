package orrery

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProgram is reported when a visible node reaches draw time without
	// an own or inherited program.
	ErrNoProgram = errors.New("orrery: no program to draw with")

	// ErrNotReady is returned by Scene.Draw while textures are still loading.
	ErrNotReady = errors.New("orrery: textures not ready")

	// ErrUnknownAxis identifies a rotation about an axis name the scene does
	// not know. Scene.Rotate logs and absorbs it.
	ErrUnknownAxis = errors.New("orrery: unknown rotation axis")

	// ErrInvalidAngle identifies a rotation by a NaN or infinite angle.
	// Scene.Rotate logs and absorbs it.
	ErrInvalidAngle = errors.New("orrery: rotation angle is not finite")

	// ErrDuplicateProgram is returned when a program name is registered twice.
	ErrDuplicateProgram = errors.New("orrery: duplicate program name")
)

// ConfigError reports a scene graph that cannot be drawn as configured.
// It aborts the traversal for the current frame.
type ConfigError struct {
	Node string // name of the node that failed
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("orrery: node %q: %v", e.Node, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

package orrery

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Draw renders the subtree rooted at n. inherited is the parent's effective
// program (nil at the root) and transform is the parent's accumulated
// transform (the model-view matrix at the root).
//
// An invisible node returns immediately without touching the GPU or its
// children. A visible node with no program of its own and none inherited
// fails with a *ConfigError wrapping ErrNoProgram, aborting the traversal.
func (n *Node) Draw(inherited Program, transform mgl32.Mat4) error {
	var st FrameStats
	return n.draw(inherited, transform, &st)
}

// draw walks the tree depth-first, carrying the accumulated transform and the
// effective program down as parameters. Nothing is stored on the nodes.
func (n *Node) draw(inherited Program, parent mgl32.Mat4, st *FrameStats) error {
	if !n.Visible {
		st.NodesSkipped++
		return nil
	}
	st.NodesVisited++

	prog := n.Program
	if prog == nil {
		prog = inherited
	}
	if prog == nil {
		return &ConfigError{Node: n.Name, Err: ErrNoProgram}
	}

	mv := composeTransform(parent, n.Transform)
	prog.Use()

	if len(n.attachments) > 0 {
		prog.SetUniform(UniformModelView, UniformMat4(mv))
		prog.SetUniform(UniformNormal, UniformMat3(normalMatrix(mv)))
		st.UniformWrites += 2
	}

	for _, a := range n.attachments {
		switch a := a.(type) {
		case *Material:
			st.UniformWrites += a.apply(prog)
		case *Light:
			st.UniformWrites += a.apply()
			// The light switched programs; later attachments write into ours.
			prog.Use()
		case *Geometry:
			if a.Mesh == nil {
				return &ConfigError{Node: n.Name, Err: fmt.Errorf("geometry %q has no mesh", a.Name)}
			}
			if err := a.Mesh.Draw(prog); err != nil {
				return fmt.Errorf("orrery: node %q: draw %q: %w", n.Name, a.Name, err)
			}
			st.DrawCalls++
		default:
			return &ConfigError{Node: n.Name, Err: fmt.Errorf("unsupported attachment %T", a)}
		}
	}

	for _, child := range n.children {
		if err := child.draw(prog, mv, st); err != nil {
			return err
		}
	}
	return nil
}

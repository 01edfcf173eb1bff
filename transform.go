package orrery

import "github.com/go-gl/mathgl/mgl32"

// composeTransform returns parent ∘ local: the transform a child's geometry is
// drawn with when its parent's accumulated transform is parent.
func composeTransform(parent, local mgl32.Mat4) mgl32.Mat4 {
	return parent.Mul4(local)
}

// --- Local transform edits ---
//
// All edits post-multiply the local matrix, so the newest edit is applied to
// the geometry first (gl-matrix mat4.rotate semantics).

// SetTransform replaces the node's local transform.
func (n *Node) SetTransform(m mgl32.Mat4) {
	n.Transform = m
}

// ResetTransform sets the local transform back to identity.
func (n *Node) ResetTransform() {
	n.Transform = mgl32.Ident4()
}

// Rotate composes a rotation of angle radians about axis into the local
// transform. A zero axis leaves the transform unchanged.
func (n *Node) Rotate(angle float32, axis mgl32.Vec3) {
	if axis.Len() == 0 {
		return
	}
	n.Transform = n.Transform.Mul4(mgl32.HomogRotate3D(angle, axis.Normalize()))
}

// Translate composes a translation into the local transform.
func (n *Node) Translate(x, y, z float32) {
	n.Transform = n.Transform.Mul4(mgl32.Translate3D(x, y, z))
}

// Scale composes a non-uniform scale into the local transform.
func (n *Node) Scale(x, y, z float32) {
	n.Transform = n.Transform.Mul4(mgl32.Scale3D(x, y, z))
}

// --- Accumulated transform ---

// LocalToWorld returns the product of all ancestor transforms (root first)
// and this node's own transform. It is computed on every call; traversal
// does not use it and nothing caches it.
func (n *Node) LocalToWorld() mgl32.Mat4 {
	m := n.Transform
	for p := n.Parent; p != nil; p = p.Parent {
		m = composeTransform(p.Transform, m)
	}
	return m
}

package orrery

import "github.com/go-gl/mathgl/mgl32"

// nodeIDCounter is a plain counter, not atomic: the scene graph lives on the
// render thread.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the scene graph's composition unit. It owns its children and
// attachments, a local transform, a visibility flag and an optional program.
// A node without a program draws with the one inherited from its parent.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform is the local transformation, identity by default.
	Transform mgl32.Mat4

	// Visible hides the node and its whole subtree when false.
	Visible bool

	// Program draws this subtree. Nil means inherit from the parent.
	Program Program

	attachments []Attachment
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Transform = mgl32.Ident4()
	n.Visible = true
}

// NewNode creates a node with the given program (nil to inherit) and
// attachments. Attachment order is the order their uniforms and draw calls
// are issued in.
func NewNode(name string, program Program, attachments ...Attachment) *Node {
	n := &Node{Name: name, Program: program}
	nodeDefaults(n)
	n.Attach(attachments...)
	return n
}

// NewGroup creates a program-less node grouping the given children.
func NewGroup(name string, children ...*Node) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

// --- Attachments ---

// Attach appends attachments. Nil attachments panic.
func (n *Node) Attach(attachments ...Attachment) {
	for _, a := range attachments {
		if a == nil {
			panic("orrery: cannot attach nil")
		}
		n.attachments = append(n.attachments, a)
	}
}

// Attachments returns the attachment list. The returned slice MUST NOT be mutated.
func (n *Node) Attachments() []Attachment {
	return n.attachments
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	n.insertChild(child, -1)
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if index < 0 {
		panic("orrery: child index out of range")
	}
	n.insertChild(child, index)
}

// insertChild places child at index, or appends it when index is negative.
func (n *Node) insertChild(child *Node, index int) {
	if child == nil {
		panic("orrery: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("orrery: adding child would create a cycle")
	}
	limit := len(n.children)
	if child.Parent == n {
		limit--
	}
	if index > limit {
		panic("orrery: child index out of range")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	if index < 0 {
		index = len(n.children)
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("orrery: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("orrery: child index out of range")
	}
	child := n.children[index]
	n.removeChildByPtr(child)
	child.Parent = nil
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Find returns the first node named name in this subtree (depth-first,
// including n itself), or nil.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// SetVisible shows or hides the node and its subtree.
func (n *Node) SetVisible(v bool) {
	n.Visible = v
}

// --- Helpers ---

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

package orrery

import "time"

// FrameStats holds per-frame traversal metrics for the most recent Draw.
type FrameStats struct {
	NodesVisited  int           // visible nodes drawn
	NodesSkipped  int           // invisible subtree roots (descendants not counted)
	DrawCalls     int           // Geometry draw calls issued
	UniformWrites int           // uniforms written during traversal
	TraverseTime  time.Duration // wall time of the root traversal
	FrameTime     time.Duration // wall time of the whole Draw
}

// debugLog prints the frame stats at debug level.
func (s *Scene) debugLog(stats FrameStats) {
	if !s.debug {
		return
	}
	Logger().Debug("frame",
		"traverse", stats.TraverseTime,
		"total", stats.FrameTime,
		"visited", stats.NodesVisited,
		"skipped", stats.NodesSkipped,
		"drawCalls", stats.DrawCalls,
		"uniforms", stats.UniformWrites,
	)
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene.
var globalDebug bool

// debugMaxTreeDepth is the depth past which a warning is logged.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("tree depth exceeds threshold",
			"node", n.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugMaxChildCount is the child count past which a warning is logged.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("child count exceeds threshold",
			"node", n.Name, "children", len(n.children), "threshold", debugMaxChildCount)
	}
}

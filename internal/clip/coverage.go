package clip

import "github.com/gogpu/compositor/geom"

// Layer is the coverage left after a number of clips. A nil Coverage
// means nothing is visible.
type Layer struct {
	Coverage *geom.Rect
	Height   int
}

// Replay is a clip recorded for redrawing into a freshly opened pass.
type Replay[E any] struct {
	Entry    E
	Height   int
	Coverage *geom.Rect
}

// subpassState holds the coverage layers and replay list of one subpass.
type subpassState[E any] struct {
	layers  []Layer
	replays []Replay[E]
}

// Result reports how a clip or restore changed the coverage.
type Result struct {
	// ClipDidChange is true when the scissor must be re-applied.
	ClipDidChange bool
	// ShouldRender is true when the clip must be rasterized into the pass.
	ShouldRender bool
}

// ClipCoverage is the device coverage a clip leaves behind, as computed by
// the clip's owner.
type ClipCoverage struct {
	// Coverage is nil when the clip hides everything.
	Coverage *geom.Rect
	// DifferenceOrNonSquare disables the "already covered" shortcut.
	DifferenceOrNonSquare bool
}

// CoverageStack tracks clip coverage per open subpass. The root subpass
// starts with the initial coverage at height 0; each SaveLayer pushes a
// subpass starting at the layer's coverage and the current clip height.
//
// E is the clip entry type recorded in the replay list.
type CoverageStack[E any] struct {
	states []subpassState[E]
}

// NewCoverageStack creates a stack whose root coverage is initial.
func NewCoverageStack[E any](initial geom.Rect) *CoverageStack[E] {
	cs := &CoverageStack[E]{}
	cs.states = []subpassState[E]{{layers: []Layer{{Coverage: rectPtr(initial), Height: 0}}}}
	return cs
}

func (cs *CoverageStack[E]) current() *subpassState[E] {
	return &cs.states[len(cs.states)-1]
}

// CurrentCoverage returns the coverage of the current subpass, or nil if
// nothing is visible.
func (cs *CoverageStack[E]) CurrentCoverage() *geom.Rect {
	st := cs.current()
	if len(st.layers) == 0 {
		return nil
	}
	return st.layers[len(st.layers)-1].Coverage
}

// CurrentHeight returns the clip height of the current coverage layer.
func (cs *CoverageStack[E]) CurrentHeight() int {
	st := cs.current()
	if len(st.layers) == 0 {
		return 0
	}
	return st.layers[len(st.layers)-1].Height
}

// HasCoverage reports whether any coverage layer is active.
func (cs *CoverageStack[E]) HasCoverage() bool {
	return len(cs.current().layers) > 0
}

// SubpassDepth returns the number of open subpasses above the root.
func (cs *CoverageStack[E]) SubpassDepth() int {
	return len(cs.states) - 1
}

// PushSubpass opens a subpass whose coverage starts at coverage with the
// given clip height.
func (cs *CoverageStack[E]) PushSubpass(coverage *geom.Rect, height int) {
	cs.states = append(cs.states, subpassState[E]{
		layers: []Layer{{Coverage: copyRect(coverage), Height: height}},
	})
}

// PopSubpass closes the current subpass. The root is never popped.
func (cs *CoverageStack[E]) PopSubpass() {
	if len(cs.states) > 1 {
		cs.states = cs.states[:len(cs.states)-1]
	}
}

// AppendClip records a clip whose resulting coverage is cc.
//
// A clip applied while nothing is visible is dropped. An intersect clip whose
// coverage contains the current coverage adds a layer without changing
// anything. Any other clip pushes its coverage and is recorded for replay.
func (cs *CoverageStack[E]) AppendClip(cc ClipCoverage, entry E) Result {
	current := cs.CurrentCoverage()
	if current == nil {
		return Result{}
	}
	st := cs.current()
	height := cs.CurrentHeight() + 1

	if !cc.DifferenceOrNonSquare && cc.Coverage != nil && cc.Coverage.Contains(*current) {
		st.layers = append(st.layers, Layer{Coverage: copyRect(current), Height: height})
		return Result{}
	}

	var next *geom.Rect
	if cc.Coverage != nil && !cc.Coverage.IsEmpty() {
		next = copyRect(cc.Coverage)
	}
	st.layers = append(st.layers, Layer{Coverage: next, Height: height})
	st.replays = append(st.replays, Replay[E]{Entry: entry, Height: height, Coverage: copyRect(next)})
	return Result{ClipDidChange: true, ShouldRender: true}
}

// RestoreClip drops every coverage layer above restoreHeight. Clip restores
// that would not change anything are ignored. Replay entries above the
// restored height are discarded as well.
func (cs *CoverageStack[E]) RestoreClip(restoreHeight int) Result {
	st := cs.current()
	if len(st.layers) == 0 || st.layers[len(st.layers)-1].Height <= restoreHeight {
		return Result{}
	}
	idx := restoreHeight - st.layers[0].Height
	if idx < 0 {
		idx = 0
	}
	st.layers = st.layers[:idx+1]

	n := len(st.replays)
	for n > 0 && st.replays[n-1].Height > restoreHeight {
		n--
	}
	clear(st.replays[n:])
	st.replays = st.replays[:n]
	return Result{ClipDidChange: true}
}

// ReplayEntries returns the clips of the current subpass that must be
// redrawn into a newly opened pass, in application order.
func (cs *CoverageStack[E]) ReplayEntries() []Replay[E] {
	return cs.current().replays
}

func rectPtr(r geom.Rect) *geom.Rect {
	if r.IsEmpty() {
		return nil
	}
	return &r
}

func copyRect(r *geom.Rect) *geom.Rect {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

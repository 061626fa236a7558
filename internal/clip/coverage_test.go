package clip

import (
	"testing"

	"github.com/gogpu/compositor/geom"
)

func rp(l, t, r, b float64) *geom.Rect {
	rect := geom.MakeLTRB(l, t, r, b)
	return &rect
}

func TestNewCoverageStack(t *testing.T) {
	cs := NewCoverageStack[string](geom.MakeLTRB(0, 0, 100, 100))
	if got := cs.CurrentCoverage(); got == nil || *got != geom.MakeLTRB(0, 0, 100, 100) {
		t.Errorf("CurrentCoverage() = %v, want full target", got)
	}
	if cs.CurrentHeight() != 0 {
		t.Errorf("CurrentHeight() = %d, want 0", cs.CurrentHeight())
	}
	if cs.SubpassDepth() != 0 {
		t.Errorf("SubpassDepth() = %d, want 0", cs.SubpassDepth())
	}
}

func TestCoverageStack_AppendClip(t *testing.T) {
	cs := NewCoverageStack[string](geom.MakeLTRB(0, 0, 100, 100))

	tests := []struct {
		name       string
		cc         ClipCoverage
		wantChange bool
		wantCov    *geom.Rect
		wantHeight int
		wantReplay int
	}{
		{
			name:       "containing intersect is a no-op",
			cc:         ClipCoverage{Coverage: rp(-10, -10, 200, 200)},
			wantChange: false,
			wantCov:    rp(0, 0, 100, 100),
			wantHeight: 1,
			wantReplay: 0,
		},
		{
			name:       "smaller intersect",
			cc:         ClipCoverage{Coverage: rp(10, 10, 50, 50)},
			wantChange: true,
			wantCov:    rp(10, 10, 50, 50),
			wantHeight: 2,
			wantReplay: 1,
		},
		{
			name:       "difference always changes",
			cc:         ClipCoverage{Coverage: rp(10, 10, 50, 50), DifferenceOrNonSquare: true},
			wantChange: true,
			wantCov:    rp(10, 10, 50, 50),
			wantHeight: 3,
			wantReplay: 2,
		},
		{
			name:       "empty coverage",
			cc:         ClipCoverage{Coverage: nil},
			wantChange: true,
			wantCov:    nil,
			wantHeight: 4,
			wantReplay: 3,
		},
		{
			name:       "clip while culled is dropped",
			cc:         ClipCoverage{Coverage: rp(0, 0, 10, 10)},
			wantChange: false,
			wantCov:    nil,
			wantHeight: 4,
			wantReplay: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := cs.AppendClip(tt.cc, tt.name)
			if res.ClipDidChange != tt.wantChange {
				t.Errorf("ClipDidChange = %v, want %v", res.ClipDidChange, tt.wantChange)
			}
			got := cs.CurrentCoverage()
			if (got == nil) != (tt.wantCov == nil) || (got != nil && *got != *tt.wantCov) {
				t.Errorf("CurrentCoverage() = %v, want %v", got, tt.wantCov)
			}
			if cs.CurrentHeight() != tt.wantHeight {
				t.Errorf("CurrentHeight() = %d, want %d", cs.CurrentHeight(), tt.wantHeight)
			}
			if n := len(cs.ReplayEntries()); n != tt.wantReplay {
				t.Errorf("len(ReplayEntries()) = %d, want %d", n, tt.wantReplay)
			}
		})
	}
}

func TestCoverageStack_RestoreClip(t *testing.T) {
	cs := NewCoverageStack[int](geom.MakeLTRB(0, 0, 100, 100))
	cs.AppendClip(ClipCoverage{Coverage: rp(10, 10, 90, 90)}, 1)
	cs.AppendClip(ClipCoverage{Coverage: rp(20, 20, 80, 80)}, 2)
	cs.AppendClip(ClipCoverage{Coverage: rp(30, 30, 70, 70)}, 3)

	if res := cs.RestoreClip(3); res.ClipDidChange {
		t.Error("RestoreClip(3) at height 3 changed the clip")
	}

	res := cs.RestoreClip(1)
	if !res.ClipDidChange {
		t.Error("RestoreClip(1) ClipDidChange = false, want true")
	}
	if got := cs.CurrentCoverage(); got == nil || *got != geom.MakeLTRB(10, 10, 90, 90) {
		t.Errorf("CurrentCoverage() = %v, want (10,10)-(90,90)", got)
	}
	replays := cs.ReplayEntries()
	if len(replays) != 1 || replays[0].Entry != 1 {
		t.Errorf("ReplayEntries() = %+v, want only the first clip", replays)
	}

	cs.RestoreClip(0)
	if got := cs.CurrentCoverage(); got == nil || *got != geom.MakeLTRB(0, 0, 100, 100) {
		t.Errorf("CurrentCoverage() after full restore = %v", got)
	}
	if len(cs.ReplayEntries()) != 0 {
		t.Errorf("ReplayEntries() after full restore = %d entries", len(cs.ReplayEntries()))
	}
}

func TestCoverageStack_Subpass(t *testing.T) {
	cs := NewCoverageStack[int](geom.MakeLTRB(0, 0, 100, 100))
	cs.AppendClip(ClipCoverage{Coverage: rp(10, 10, 90, 90)}, 1)

	cs.PushSubpass(rp(20, 20, 60, 60), cs.CurrentHeight())
	if cs.SubpassDepth() != 1 {
		t.Fatalf("SubpassDepth() = %d, want 1", cs.SubpassDepth())
	}
	if got := cs.CurrentCoverage(); *got != geom.MakeLTRB(20, 20, 60, 60) {
		t.Errorf("subpass CurrentCoverage() = %v", got)
	}
	if len(cs.ReplayEntries()) != 0 {
		t.Error("subpass starts with replay entries")
	}
	cs.AppendClip(ClipCoverage{Coverage: rp(30, 30, 40, 40)}, 2)
	if cs.CurrentHeight() != 2 {
		t.Errorf("CurrentHeight() = %d, want 2", cs.CurrentHeight())
	}
	// Restoring to the subpass's own base height keeps its base layer.
	cs.RestoreClip(1)
	if got := cs.CurrentCoverage(); *got != geom.MakeLTRB(20, 20, 60, 60) {
		t.Errorf("CurrentCoverage() after restore = %v", got)
	}

	cs.PopSubpass()
	if got := cs.CurrentCoverage(); *got != geom.MakeLTRB(10, 10, 90, 90) {
		t.Errorf("parent CurrentCoverage() = %v", got)
	}
	cs.PopSubpass()
	if cs.SubpassDepth() != 0 {
		t.Error("PopSubpass() popped the root")
	}
}

func TestCoverageMonotonicUnderIntersect(t *testing.T) {
	cov := geom.MakeLTRB(0, 0, 200, 200)
	clips := []geom.Rect{
		geom.MakeLTRB(10, 10, 190, 190),
		geom.MakeLTRB(-50, 20, 150, 400),
		geom.MakeLTRB(30, 0, 60, 60),
		geom.MakeLTRB(0, 0, 1000, 1000),
		geom.MakeLTRB(500, 500, 600, 600),
	}
	m := geom.Rotate(0.3)
	for i, c := range clips {
		next := AdjustCoverage(cov, RectShape(c), m, OpIntersect, true)
		if !next.IsEmpty() && !cov.Contains(next) {
			t.Fatalf("clip %d grew coverage from %v to %v", i, cov, next)
		}
		cov = next
	}
}

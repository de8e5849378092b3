package pool

import (
	"io"
	"testing"

	"github.com/nifri2/blinkmatrix/internal/diag"
)

func TestNewPoolHasFullCapacity(t *testing.T) {
	p := New()
	if got := p.FreeAnimationSlots(); got != MaxAnimations {
		t.Errorf("FreeAnimationSlots = %d, want %d", got, MaxAnimations)
	}
	if got := p.FreeFrameSlots(); got != MaxFrames {
		t.Errorf("FreeFrameSlots = %d, want %d", got, MaxFrames)
	}
}

func TestStartLoadingAllocatesTailSlot(t *testing.T) {
	p := New()
	if !p.StartLoading(2000) {
		t.Fatal("StartLoading should succeed on empty pool")
	}
	if !p.IsLoadingAnimation() {
		t.Error("IsLoadingAnimation should be true right after StartLoading")
	}
	if p.FreeAnimationSlots() != MaxAnimations-1 {
		t.Errorf("FreeAnimationSlots = %d, want %d", p.FreeAnimationSlots(), MaxAnimations-1)
	}
}

func TestStartLoadingSealsPreviousAnimation(t *testing.T) {
	p := New()
	p.StartLoading(1000)
	p.StartLoading(2000)
	anims := p.Animations()
	if len(anims) != 2 {
		t.Fatalf("len(Animations()) = %d, want 2", len(anims))
	}
	if anims[0].BeingLoaded {
		t.Error("first animation should have been sealed by the second StartLoading")
	}
	if !anims[1].BeingLoaded {
		t.Error("second animation should still be loading")
	}
}

func TestGetFrameToLoadRequiresLoadingAnimation(t *testing.T) {
	p := New()
	if _, ok := p.GetFrameToLoad(); ok {
		t.Error("GetFrameToLoad should fail with no loading animation")
	}
}

func TestGetFrameToLoadBumpsFrameCount(t *testing.T) {
	p := New()
	p.StartLoading(1000)
	f, ok := p.GetFrameToLoad()
	if !ok || f == nil {
		t.Fatal("GetFrameToLoad should succeed")
	}
	anims := p.Animations()
	if anims[0].NumFrames != 1 {
		t.Errorf("NumFrames = %d, want 1", anims[0].NumFrames)
	}
}

func TestFinalizeLoadingIsIdempotent(t *testing.T) {
	p := New()
	p.FinalizeLoading() // no-op on empty pool, must not panic
	p.StartLoading(1000)
	p.FinalizeLoading()
	p.FinalizeLoading()
	if p.IsLoadingAnimation() {
		t.Error("IsLoadingAnimation should be false after FinalizeLoading")
	}
}

func TestAnimationPoolExhaustion(t *testing.T) {
	p := New()
	for i := 0; i < MaxAnimations; i++ {
		if !p.StartLoading(100) {
			t.Fatalf("StartLoading unexpectedly failed at i=%d", i)
		}
		p.FinalizeLoading()
	}
	if p.StartLoading(100) {
		t.Error("StartLoading should fail once the animation ring is full")
	}
}

func TestFramePoolExhaustionBlocksNewAnimation(t *testing.T) {
	p := New()
	p.StartLoading(1000)
	for i := 0; i < MaxFrames; i++ {
		if _, ok := p.GetFrameToLoad(); !ok {
			t.Fatalf("GetFrameToLoad unexpectedly failed at i=%d", i)
		}
	}
	p.FinalizeLoading()
	if p.CanLoadAnimation() {
		t.Error("CanLoadAnimation should be false once the frame ring is full")
	}
}

func TestSkipCurrentNoOpOnSingleton(t *testing.T) {
	p := New()
	p.StartLoading(1000)
	p.GetFrameToLoad()
	p.FinalizeLoading()
	p.SkipCurrent()
	if p.Empty() {
		t.Error("SkipCurrent should be a no-op with only one live animation")
	}
}

func TestSkipCurrentRetiresHead(t *testing.T) {
	p := New()
	p.StartLoading(1000)
	p.GetFrameToLoad()
	p.FinalizeLoading()
	p.StartLoading(2000)
	p.GetFrameToLoad()
	p.FinalizeLoading()

	p.SkipCurrent()
	anims := p.Animations()
	if len(anims) != 1 {
		t.Fatalf("len(Animations()) = %d, want 1", len(anims))
	}
	if anims[0].Duration != 2000 {
		t.Errorf("remaining animation duration = %d, want 2000", anims[0].Duration)
	}
}

func TestDiscardEmptySealedHeadsSkipsFramelessAnimations(t *testing.T) {
	p := New()
	p.StartLoading(1000) // empty, sealed below
	p.FinalizeLoading()
	p.StartLoading(2000)
	p.GetFrameToLoad()
	p.FinalizeLoading()

	p.DiscardEmptySealedHeads()
	anims := p.Animations()
	if len(anims) != 1 || anims[0].Duration != 2000 {
		t.Errorf("expected only the 2000ms animation to remain, got %+v", anims)
	}
}

func TestDiscardEmptySealedHeadsKeepsStillLoading(t *testing.T) {
	p := New()
	p.StartLoading(1000) // empty, still loading, must survive
	p.DiscardEmptySealedHeads()
	if p.Empty() {
		t.Error("a loading animation with zero frames must not be discarded")
	}
}

func TestRetireHeadAdvancesFrameCursors(t *testing.T) {
	p := New()
	p.StartLoading(1000)
	p.GetFrameToLoad()
	p.GetFrameToLoad()
	p.FinalizeLoading()
	if p.FreeFrameSlots() != MaxFrames-2 {
		t.Fatalf("FreeFrameSlots = %d, want %d", p.FreeFrameSlots(), MaxFrames-2)
	}
	p.RetireHead()
	if p.FreeFrameSlots() != MaxFrames {
		t.Errorf("FreeFrameSlots after retire = %d, want %d", p.FreeFrameSlots(), MaxFrames)
	}
	if !p.Empty() {
		t.Error("pool should be empty after retiring the only animation")
	}
}

func TestResetZeroesCursors(t *testing.T) {
	p := New()
	p.StartLoading(1000)
	p.GetFrameToLoad()
	p.Reset()
	if !p.Empty() {
		t.Error("Reset should empty the animation ring")
	}
	if p.FreeFrameSlots() != MaxFrames {
		t.Error("Reset should free every frame slot")
	}
}

func TestSentinelIsStaticAndBlack(t *testing.T) {
	p := New()
	s := p.Sentinel()
	r, g, b := s.PixelAt(0, 0)
	if r != 0 || g != 0 || b != 0 {
		t.Error("sentinel frame should be all black")
	}
}

func TestFrameAtWithinLiveSpanReturnsRealFrame(t *testing.T) {
	p := New()
	p.StartLoading(1000)
	f, _ := p.GetFrameToLoad()
	f.SetPixel(0, 0, 42, 0, 0)
	p.FinalizeLoading()

	head := p.HeadAnimation()
	got := p.FrameAt(head.FrameStart)
	if got != f {
		t.Error("FrameAt should return the same frame slot GetFrameToLoad handed back")
	}
}

func TestFrameAtOutsideLiveSpanReportsCantHappen(t *testing.T) {
	var reported string
	p := New()
	logger := diag.New(io.Discard)
	logger.SetCantHappenSink(func(code string) { reported = code })
	p.SetDiag(logger)

	p.StartLoading(1000)
	p.GetFrameToLoad()
	p.FinalizeLoading()

	// framesStart+framesLength (mod MaxFrames) lies just outside the
	// live span for a freshly loaded single-frame animation.
	got := p.FrameAt(p.framesStart + p.framesLength)
	if got != p.Sentinel() {
		t.Error("FrameAt outside the live span should fall back to the sentinel frame")
	}
	if reported == "" {
		t.Error("expected the cant_happen sink to fire for an out-of-span index")
	}
}

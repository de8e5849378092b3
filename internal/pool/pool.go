// Package pool implements the bounded frame and animation rings
// described in the animation engine's data model. It is a Go
// translation of the Blinkenlights firmware's Animatior<...> template
// (animator.h): two parallel ring buffers with (start, length)
// cursors, replacing the original's sentinel-index intrusive lists so
// that "an animation's frames form a contiguous span" is a checkable
// invariant instead of an assumed one.
package pool

import (
	"github.com/nifri2/blinkmatrix/internal/diag"
	"github.com/nifri2/blinkmatrix/internal/frame"
)

const (
	// MaxFrames is the firmware-default frame ring capacity.
	MaxFrames = 16
	// MaxAnimations is the firmware-default animation ring capacity.
	MaxAnimations = 32
)

// Animation is a record owning a contiguous span of the frame ring
// plus overall playback bookkeeping.
type Animation struct {
	BeingLoaded bool
	Started     bool
	FrameStart  int
	NumFrames   int
	Duration    uint32 // milliseconds
}

// Pool owns the frame ring, the animation ring, and the statically
// owned sentinel frame shown whenever the live animation region is
// empty.
type Pool struct {
	frames   [MaxFrames]frame.Frame
	sentinel frame.Frame

	animations [MaxAnimations]Animation

	framesStart, framesLength int
	animStart, animLength     int

	diag *diag.Logger
}

// New returns an empty pool with a cleared sentinel frame.
func New() *Pool {
	p := &Pool{}
	p.sentinel.Clear()
	return p
}

// SetDiag installs the cant_happen sink used to report an
// impossible frame index (see FrameAt). Optional; a pool with no
// diag attached silently falls back to the sentinel frame instead.
func (p *Pool) SetDiag(d *diag.Logger) {
	p.diag = d
}

// CanLoadFrame reports whether the frame ring has a free slot.
func (p *Pool) CanLoadFrame() bool {
	return p.framesLength < MaxFrames
}

// CanLoadAnimation reports whether both rings have slack for a new
// animation upload.
func (p *Pool) CanLoadAnimation() bool {
	return p.animLength < MaxAnimations && p.CanLoadFrame()
}

// StartLoading seals any previously loading animation and allocates a
// new tail slot marked being_loaded. It returns false, allocating
// nothing, when the pool is full.
func (p *Pool) StartLoading(durationMS uint32) bool {
	if !p.CanLoadAnimation() {
		return false
	}
	if p.animLength > 0 {
		p.FinalizeLoading()
	}
	idx := (p.animStart + p.animLength) % MaxAnimations
	frameIdx := (p.framesStart + p.framesLength) % MaxFrames
	p.animations[idx] = Animation{
		BeingLoaded: true,
		Started:     false,
		FrameStart:  frameIdx,
		NumFrames:   0,
		Duration:    durationMS,
	}
	p.animLength++
	return true
}

// IsLoadingAnimation reports whether the tail animation is still
// accepting frames.
func (p *Pool) IsLoadingAnimation() bool {
	if p.animLength == 0 {
		return false
	}
	return p.animations[p.tailIdx()].BeingLoaded
}

// FinalizeLoading clears the being_loaded flag on the tail animation.
// It is idempotent and a no-op on an empty pool.
func (p *Pool) FinalizeLoading() {
	if p.animLength == 0 {
		return
	}
	p.animations[p.tailIdx()].BeingLoaded = false
}

func (p *Pool) tailIdx() int {
	return (p.animStart + p.animLength - 1) % MaxAnimations
}

// GetFrameToLoad allocates the next frame tail slot for the currently
// loading animation, rewinds it, and bumps that animation's frame
// count. It fails if the frame ring is full or no animation is
// currently loading.
func (p *Pool) GetFrameToLoad() (*frame.Frame, bool) {
	if !p.CanLoadFrame() || !p.IsLoadingAnimation() {
		return nil, false
	}
	idx := (p.framesStart + p.framesLength) % MaxFrames
	p.framesLength++
	p.frames[idx].Rewind()
	p.animations[p.tailIdx()].NumFrames++
	return &p.frames[idx], true
}

// Empty reports whether there is no live animation.
func (p *Pool) Empty() bool {
	return p.animLength == 0
}

// HeadAnimation returns a mutable pointer to the head (currently
// playing) animation, or nil if the pool is empty.
func (p *Pool) HeadAnimation() *Animation {
	if p.animLength == 0 {
		return nil
	}
	return &p.animations[p.animStart]
}

// FrameAt returns the frame at the given ring index, wrapping modulo
// the ring capacity. Used by the player to walk a live animation's
// frame span. idx must fall within the currently live frame span; a
// caller bug that computes an index into an already-retired or
// not-yet-allocated slot is reported via cant_happen and answered
// with the sentinel frame rather than handing back stale pixel data.
func (p *Pool) FrameAt(idx int) *frame.Frame {
	offset := (idx - p.framesStart + MaxFrames) % MaxFrames
	if offset >= p.framesLength {
		if p.diag != nil {
			p.diag.CantHappen("pool: frame index outside live span", "idx", idx, "framesStart", p.framesStart, "framesLength", p.framesLength)
		}
		return &p.sentinel
	}
	return &p.frames[idx%MaxFrames]
}

// Sentinel returns the all-black frame displayed when nothing is
// queued.
func (p *Pool) Sentinel() *frame.Frame {
	return &p.sentinel
}

// RetireHead advances the ring cursors past the head animation and
// its frame span, releasing both back to the pool.
func (p *Pool) RetireHead() {
	if p.animLength == 0 {
		return
	}
	head := p.animations[p.animStart]
	p.framesStart = (p.framesStart + head.NumFrames) % MaxFrames
	p.framesLength -= head.NumFrames
	p.animStart = (p.animStart + 1) % MaxAnimations
	p.animLength--
}

// DiscardEmptySealedHeads retires any run of head animations that
// have zero frames and are not currently loading -- a legal upload
// pattern (an ANM immediately followed by DON) that must never stall
// the player.
func (p *Pool) DiscardEmptySealedHeads() {
	for p.animLength > 0 {
		head := p.animations[p.animStart]
		if head.NumFrames != 0 || head.BeingLoaded {
			break
		}
		p.RetireHead()
	}
}

// SkipCurrent retires the head animation, unless it is the only live
// animation, in which case it is a no-op.
func (p *Pool) SkipCurrent() {
	if p.animLength < 2 {
		return
	}
	p.RetireHead()
}

// Reset zeroes every cursor, returning the pool to its just-booted
// state. It does not touch pixel data, which is inert until a slot is
// reallocated.
func (p *Pool) Reset() {
	p.framesStart = 0
	p.framesLength = 0
	p.animStart = 0
	p.animLength = 0
}

// FreeFrameSlots reports the number of unallocated frame ring slots.
func (p *Pool) FreeFrameSlots() int {
	return MaxFrames - p.framesLength
}

// FreeAnimationSlots reports the number of unallocated animation ring
// slots.
func (p *Pool) FreeAnimationSlots() int {
	return MaxAnimations - p.animLength
}

// Animations returns a snapshot of the live animations in queue
// order, head first. Used by the QUE command.
func (p *Pool) Animations() []Animation {
	out := make([]Animation, p.animLength)
	for i := 0; i < p.animLength; i++ {
		out[i] = p.animations[(p.animStart+i)%MaxAnimations]
	}
	return out
}

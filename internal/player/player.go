// Package player implements the time-driven playback state machine
// that selects which frame the matrix driver should show right now.
// It is grounded on the scheduling half of Blinkenlights' Animatior
// template (animator.h's GetCurrentFrame): the ring bookkeeping lives
// in internal/pool, while the derived scheduling cursors (which
// frame is current, when it and its enclosing animation expire) live
// here, exactly as animator.h keeps curr_frame_/frame_expiration_/
// animation_expiration_ as instance fields separate from the
// Animation records themselves.
package player

import (
	"github.com/nifri2/blinkmatrix/internal/frame"
	"github.com/nifri2/blinkmatrix/internal/pool"
)

// NowFunc returns the current board time in milliseconds. Production
// code wires time.Now-based millis; tests inject a literal clock.
type NowFunc func() uint32

// Player consults a Pool on every tick and returns the Frame that
// should be displayed.
type Player struct {
	pool *pool.Pool
	now  NowFunc

	animExpiration  uint32
	currFrameIdx    int
	frameExpiration uint32
}

// New returns a Player bound to the given pool and clock.
func New(p *pool.Pool, now NowFunc) *Player {
	return &Player{pool: p, now: now}
}

// CurrentFrame implements the six-step selection algorithm: retire an
// expired head animation, discard empty sealed heads, fall back to
// the sentinel while empty or still loading, arm scheduling on first
// observation of a new head, advance within the head's frame span on
// expiry, and return the frame that should be on the matrix right
// now.
func (pl *Player) CurrentFrame() *frame.Frame {
	now := pl.now()

	if head := pl.pool.HeadAnimation(); head != nil && head.Started && now >= pl.animExpiration {
		pl.pool.RetireHead()
	}

	pl.pool.DiscardEmptySealedHeads()

	head := pl.pool.HeadAnimation()
	if head == nil || head.BeingLoaded {
		return pl.pool.Sentinel()
	}

	if !head.Started {
		head.Started = true
		pl.animExpiration = now + head.Duration
		pl.currFrameIdx = head.FrameStart
		pl.frameExpiration = now + pl.pool.FrameAt(pl.currFrameIdx).Duration()
	}

	if now >= pl.frameExpiration {
		end := (head.FrameStart + head.NumFrames) % pool.MaxFrames
		pl.currFrameIdx = (pl.currFrameIdx + 1) % pool.MaxFrames
		if pl.currFrameIdx == end {
			pl.currFrameIdx = head.FrameStart
		}
		pl.frameExpiration = now + pl.pool.FrameAt(pl.currFrameIdx).Duration()
	}

	return pl.pool.FrameAt(pl.currFrameIdx)
}

// HeadRemaining reports the milliseconds left before the head
// animation's total duration expires, if it has been started. Used by
// the QUE command, which reports remaining time rather than total
// duration for the currently playing animation (see spec's Open
// Questions).
func (pl *Player) HeadRemaining() (remaining uint32, ok bool) {
	head := pl.pool.HeadAnimation()
	if head == nil || !head.Started {
		return 0, false
	}
	now := pl.now()
	if now >= pl.animExpiration {
		return 0, true
	}
	return pl.animExpiration - now, true
}

// Reset clears all scheduling cursors. Called alongside pool.Reset on
// RST.
func (pl *Player) Reset() {
	pl.animExpiration = 0
	pl.currFrameIdx = 0
	pl.frameExpiration = 0
}

// Package pairing implements the main loop's Bluetooth pairing
// sub-state-machine: a simultaneous 3-button hold starts pairing, the
// PIN overlay frame is shown while it is in progress, and
// a single button press accepts. The simultaneous-hold detection is
// adapted from the teacher's cmd/dispatch.go radio-button debounce
// loop (getPressedPin / hold-then-release detection), narrowed from a
// 4-pin double-press address scheme to a 3-pin simultaneous-hold
// trigger. PIN digit rendering is grounded on
// other_examples/QubicOS-Spark__task.go's tinyfont.Fonter usage.
package pairing

import (
	"image/color"
	"math/rand"

	"tinygo.org/x/tinyfont"

	"github.com/nifri2/blinkmatrix/internal/frame"
)

// Button reads one capacitive touch pin.
type Button interface {
	Pressed() bool
}

// State is the pairing sub-state-machine's current phase.
type State int

const (
	// StateIdle: not pairing, watching for a triple hold.
	StateIdle State = iota
	// StateHolding: all three buttons are down, waiting out the hold
	// duration.
	StateHolding
	// StateInProgress: pairing UI is on screen, waiting for a single
	// button accept.
	StateInProgress
	// StateActive: BLE transport is selected; pairing UI has been
	// dismissed.
	StateActive
)

// holdThresholdMillis is how long all three buttons must be held
// simultaneously to arm pairing.
const holdThresholdMillis = 3000

// Machine drives the pairing state machine. now is injected in
// milliseconds, matching the player's NowFunc convention.
type Machine struct {
	buttons [3]Button
	now     func() uint32

	state       State
	holdStart   uint32
	pin         int
	logoFrame   frame.Frame
	pinFrame    frame.Frame
	font        tinyfont.Fonter
}

// New returns a Machine watching the three given capacitive buttons.
// font renders the PIN digits into the overlay frame; pass nil to use
// a blank overlay (accept-by-press still works without a legible PIN,
// e.g. before a font asset is wired in).
func New(buttons [3]Button, now func() uint32, font tinyfont.Fonter) *Machine {
	m := &Machine{buttons: buttons, now: now, font: font}
	m.logoFrame.Clear()
	drawBTLogo(&m.logoFrame)
	return m
}

// Active reports whether the wireless transport should be selected.
func (m *Machine) Active() bool {
	return m.state == StateActive
}

// InProgress reports whether the pairing overlay should be shown
// instead of the normal player output.
func (m *Machine) InProgress() bool {
	return m.state == StateInProgress
}

// Tick advances the state machine by one main-loop iteration. accept
// reports whether a single-button accept press was observed this
// tick (only meaningful while InProgress).
func (m *Machine) Tick(accept bool) {
	now := m.now()
	switch m.state {
	case StateIdle:
		if m.allHeld() {
			m.state = StateHolding
			m.holdStart = now
		}
	case StateHolding:
		if !m.allHeld() {
			m.state = StateIdle
			return
		}
		if now-m.holdStart >= holdThresholdMillis {
			m.startPairing()
		}
	case StateInProgress:
		if accept {
			m.state = StateActive
		}
	case StateActive:
		// Stays active until Reset is called; neither the main loop
		// nor the RST command calls it.
	}
}

// Reset returns the machine to idle.
func (m *Machine) Reset() {
	m.state = StateIdle
}

func (m *Machine) allHeld() bool {
	for _, b := range m.buttons {
		if !b.Pressed() {
			return false
		}
	}
	return true
}

func (m *Machine) startPairing() {
	m.state = StateInProgress
	m.pin = 100000 + rand.Intn(900000)
	m.pinFrame.Clear()
	if m.font != nil {
		drawPIN(&m.pinFrame, m.font, m.pin)
	}
}

// Overlay returns the frame that should be displayed this tick: the
// PIN frame while pairing is in progress, the BT logo in every other
// state.
func (m *Machine) Overlay() *frame.Frame {
	if m.state != StateInProgress {
		return &m.logoFrame
	}
	return &m.pinFrame
}

// PIN returns the six-digit pairing code currently displayed.
func (m *Machine) PIN() int {
	return m.pin
}

// frameDisplayer adapts a frame.Frame to tinyfont's Displayer
// contract (Size/SetPixel/Display), the same shape
// tinygo.org/x/drivers.Displayer exposes for real panels.
type frameDisplayer struct {
	f *frame.Frame
}

func (d frameDisplayer) Size() (x, y int16) {
	return int16(frame.Width), int16(frame.Height)
}

func (d frameDisplayer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || int(x) >= frame.Width || int(y) >= frame.Height {
		return
	}
	d.f.SetPixel(int(y), int(x), c.R, c.G, c.B)
}

func (d frameDisplayer) Display() error {
	return nil
}

func drawPIN(f *frame.Frame, font tinyfont.Fonter, pin int) {
	disp := frameDisplayer{f: f}
	tinyfont.WriteLine(disp, font, 0, 12, itoaPadded(pin, 6), color.RGBA{R: 255, G: 255, B: 255, A: 255})
}

func itoaPadded(v, digits int) string {
	out := make([]byte, digits)
	for i := digits - 1; i >= 0; i-- {
		out[i] = byte('0' + v%10)
		v /= 10
	}
	return string(out)
}

// drawBTLogo paints a small stylized bluetooth glyph directly, since
// it is a fixed icon rather than font-rendered text.
func drawBTLogo(f *frame.Frame) {
	glyph := [][2]int{
		{7, 4}, {7, 5}, {7, 6}, {7, 7}, {7, 8}, {7, 9}, {7, 10}, {7, 11},
		{6, 6}, {8, 6}, {5, 5}, {9, 5}, {6, 10}, {8, 10}, {5, 11}, {9, 11},
	}
	for _, p := range glyph {
		f.SetPixel(p[0], p[1], 0x29, 0x7A, 0xFF)
	}
}

// Package matrix drives the physical 16x16 LED string from a logical
// frame.Frame. It is the single component that knows the physical
// wiring: a boustrophedon/serpentine index map composed with the
// configured rotation, plus brightness, dithering, and color
// correction applied just before the ws2812 flush. The strip access
// pattern (ws2812.New(pin), strip.Write(buf)) is carried over from the
// teacher's cmd/worker.go.
package matrix

import (
	"tinygo.org/x/drivers"

	"github.com/nifri2/blinkmatrix/internal/frame"
)

// Strip is the subset of tinygo.org/x/drivers/ws2812's Device used
// here, kept as an interface so tests can substitute a recording
// fake instead of real hardware.
type Strip interface {
	Write(buf []byte) (n int, err error)
}

// Rotation is a type defined on tinygo.org/x/drivers' own orientation
// type, and its constants take the values of drivers' Rotation0..270
// -- the same constants board definitions like aykevl-board's
// badger2040 pass as a display's Rotation config. It is a distinct
// type, so a drivers.Rotation needs an explicit conversion.
type Rotation drivers.Rotation

const (
	Rotation0   = Rotation(drivers.Rotation0)
	Rotation90  = Rotation(drivers.Rotation90)
	Rotation180 = Rotation(drivers.Rotation180)
	Rotation270 = Rotation(drivers.Rotation270)
)

// ParseRotation converts the wire protocol's three-digit rotation
// token ("000", "090", "180", "270") into a Rotation.
func ParseRotation(token string) (Rotation, bool) {
	switch token {
	case "000":
		return Rotation0, true
	case "090":
		return Rotation90, true
	case "180":
		return Rotation180, true
	case "270":
		return Rotation270, true
	default:
		return Rotation0, false
	}
}

// String renders a Rotation back to its three-digit wire token.
func (r Rotation) String() string {
	switch r {
	case Rotation90:
		return "090"
	case Rotation180:
		return "180"
	case Rotation270:
		return "270"
	default:
		return "000"
	}
}

// Config configures a Matrix at construction time.
type Config struct {
	Width, Height int
	Rotation      Rotation
}

// channelScale is a per-channel linear multiplier in 0..1, applied to
// each of R, G, B independently before the brightness scale.
type channelScale struct {
	R, G, B float64
}

// Matrix owns the physical strip, the current rotation, and the
// brightness/dither/color-correction state that the protocol's
// DIM/DTH/CLC/ROT handlers mutate.
type Matrix struct {
	cfg   Config
	strip Strip

	brightness uint8 // 0..255, applied as a linear scale
	dither     bool
	correction channelScale
	corrected  bool
}

// New returns a Matrix at full brightness, no dithering, and no color
// correction, driving strip.
func New(cfg Config, strip Strip) *Matrix {
	return &Matrix{
		cfg:        cfg,
		strip:      strip,
		brightness: 255,
	}
}

// SetRotation changes the physical orientation permutation. Callers
// persist the new value to preferences separately (rotation must
// survive reboot, per spec).
func (m *Matrix) SetRotation(r Rotation) {
	m.cfg.Rotation = r
}

// Rotation reports the current rotation.
func (m *Matrix) Rotation() Rotation {
	return m.cfg.Rotation
}

// SetBrightness sets the linear brightness scale applied to every
// channel before the strip flush.
func (m *Matrix) SetBrightness(b uint8) {
	m.brightness = b
}

// Brightness reports the current brightness scale.
func (m *Matrix) Brightness() uint8 {
	return m.brightness
}

// SetDither enables or disables binary dithering of low-brightness
// values (temporal error diffusion is not implemented on this
// single-frame path; dithering here thresholds sub-1-LSB scaled
// values up rather than truncating them to zero).
func (m *Matrix) SetDither(on bool) {
	m.dither = on
}

// Dither reports whether dithering is enabled.
func (m *Matrix) Dither() bool {
	return m.dither
}

// SetColorCorrection sets a persisted RGB scale, packed the way the
// CLC command and preferences store carry it: 24 bits, R<<16|G<<8|B.
// Each channel of the correction is applied as a linear multiplier,
// not a gamma curve -- gamma remains the host's job (see the reference
// uploader's GammaLUT), the device only ever applies a fixed white
// balance correction.
func (m *Matrix) SetColorCorrection(packed uint32) {
	r := uint8(packed >> 16)
	g := uint8(packed >> 8)
	b := uint8(packed)
	m.correction = channelScale{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	m.corrected = true
}

// ClearColorCorrection removes the correction, restoring an identity
// scale.
func (m *Matrix) ClearColorCorrection() {
	m.corrected = false
}

// ColorCorrection returns the packed correction and whether one is
// active.
func (m *Matrix) ColorCorrection() (uint32, bool) {
	if !m.corrected {
		return 0, false
	}
	r := uint32(clampByte(m.correction.R * 255))
	g := uint32(clampByte(m.correction.G * 255))
	b := uint32(clampByte(m.correction.B * 255))
	return r<<16 | g<<8 | b, true
}

// Clear blanks the strip immediately.
func (m *Matrix) Clear() error {
	buf := make([]byte, m.cfg.Width*m.cfg.Height*3)
	_, err := m.strip.Write(buf)
	return err
}

// Render maps f through the serpentine/rotation index and applies
// brightness, dithering and color correction, then flushes it to the
// physical strip.
func (m *Matrix) Render(f *frame.Frame) error {
	buf := make([]byte, m.cfg.Width*m.cfg.Height*3)
	for y := 0; y < m.cfg.Height; y++ {
		for x := 0; x < m.cfg.Width; x++ {
			ry, rx := m.rotate(y, x)
			r, g, b := f.PixelAt(ry, rx)
			r, g, b = m.applyCorrection(r, g, b)
			idx := serpentineIndex(y, x, m.cfg.Width) * 3
			buf[idx], buf[idx+1], buf[idx+2] = r, g, b
		}
	}
	_, err := m.strip.Write(buf)
	return err
}

// rotate maps a physical (y, x) coordinate to the logical frame
// coordinate it should read from, for the configured rotation.
func (m *Matrix) rotate(y, x int) (int, int) {
	w, h := m.cfg.Width, m.cfg.Height
	switch m.cfg.Rotation {
	case Rotation90:
		return x, h - 1 - y
	case Rotation180:
		return h - 1 - y, w - 1 - x
	case Rotation270:
		return w - 1 - x, y
	default:
		return y, x
	}
}

// serpentineIndex maps a physical grid (row, col) to the LED string
// offset, alternating direction every row -- the
// boustrophedon wiring pattern common to hand-strung matrices.
func serpentineIndex(y, x, width int) int {
	if y%2 == 0 {
		return y*width + x
	}
	return y*width + (width - 1 - x)
}

func (m *Matrix) applyCorrection(r, g, b byte) (byte, byte, byte) {
	fr, fg, fb := float64(r), float64(g), float64(b)
	if m.corrected {
		fr *= m.correction.R
		fg *= m.correction.G
		fb *= m.correction.B
	}
	scale := float64(m.brightness) / 255
	fr *= scale
	fg *= scale
	fb *= scale
	if m.dither {
		fr, fg, fb = ditherUp(fr), ditherUp(fg), ditherUp(fb)
	}
	return clampByte(fr), clampByte(fg), clampByte(fb)
}

// ditherUp nudges a fractional sub-LSB value up to 1 rather than
// letting it truncate to 0, so low-brightness colors do not vanish
// entirely.
func ditherUp(v float64) float64 {
	if v > 0 && v < 1 {
		return 1
	}
	return v
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

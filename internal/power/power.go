// Package power implements the USB-C current-negotiation control loop:
// CC-pin sampling, debounce, brightness clamping, and matrix
// power-rail gating. It is grounded on the teacher's pin-configure-
// then-blink idiom in main.go (machine pins driven from a small
// explicit state machine, no interrupts) generalized from a fixed LED
// blink sequence to an ADC-sampling loop, since no repo in the
// reference pack implements USB-C PD classification.
package power

import "math"

// Level is the classified USB current advertisement.
type Level int

const (
	// LevelUnknown is the state before the debouncer has accepted any
	// reading. Classify never returns it.
	LevelUnknown Level = iota
	Level0_5A
	Level1_5A
	Level3A
)

// Voltage thresholds separating the three current bands, in volts.
const (
	threshold1_5A = 0.66
	threshold3A   = 1.23
)

// Classify maps a sampled CC voltage to a current level.
func Classify(volts float64) Level {
	switch {
	case volts >= threshold3A:
		return Level3A
	case volts >= threshold1_5A:
		return Level1_5A
	default:
		return Level0_5A
	}
}

// VoltageSensor reads one CC sense pin's voltage. A real
// implementation samples a machine.ADC channel and scales the raw
// reading to volts; tests inject a literal.
type VoltageSensor interface {
	ReadVolts() float64
}

// RailSwitch energises or de-energises the matrix power rails.
type RailSwitch interface {
	Set(on bool)
}

// StatusLED is a PWM-capable status indicator driven by the breathing
// pattern while at 1.5 A.
type StatusLED interface {
	SetDutyCycle(fraction float64)
}

// MatrixBrightness is the subset of matrix.Matrix the controller
// drives directly, kept as an interface to avoid an import cycle and
// to keep the controller testable without real hardware.
type MatrixBrightness interface {
	SetBrightness(b uint8)
}

// debounceMillis is the confirmation window: two samples this far
// apart must agree before a new level is accepted. The USB-C spec
// requires compliance within 60ms of an advertisement change; PD
// messages can perturb CC for up to 10ms, so a 15ms confirmation
// sample on top of the 30ms base loop satisfies both.
const debounceMillis = 15

// breathPeriodMillis is the status LED's breathing cycle length while
// at 1.5A.
const breathPeriodMillis = 3000

const (
	breathPeak  = 0.75
	breathFloor = 0.25
	steady3A    = 0.75
)

// Controller owns the accepted current level, the pending debounce
// state, and the peripherals it drives once a level is accepted.
type Controller struct {
	cc1, cc2 VoltageSensor
	rails    RailSwitch
	led      StatusLED
	matrix   MatrixBrightness

	accepted Level
	pending  Level
	pendingSince uint32
	haveSample   bool

	override   Level
	hasOverride bool

	budgets map[Level]uint8 // brightness cap per accepted level
}

// New returns a Controller with a conservative default brightness
// budget per current level: legacy/unknown current gets the dimmest
// cap, 3A gets full brightness.
func New(cc1, cc2 VoltageSensor, rails RailSwitch, led StatusLED, matrix MatrixBrightness) *Controller {
	return &Controller{
		cc1: cc1, cc2: cc2, rails: rails, led: led, matrix: matrix,
		accepted: LevelUnknown,
		pending:  LevelUnknown,
		budgets: map[Level]uint8{
			LevelUnknown: 40,
			Level0_5A:    40,
			Level1_5A:    140,
			Level3A:      255,
		},
	}
}

// SetOverride bypasses CC sampling entirely, immediately accepting
// the given level. Used when a preferences override is present.
func (c *Controller) SetOverride(level Level) {
	c.hasOverride = true
	c.override = level
	c.accept(level)
}

// ClearOverride resumes normal CC sampling.
func (c *Controller) ClearOverride() {
	c.hasOverride = false
}

// Accepted returns the currently accepted current level.
func (c *Controller) Accepted() Level {
	return c.accepted
}

// Sample runs one classification-and-debounce step. now is the board
// clock in milliseconds; callers are expected to call this once per
// main loop tick (every 30ms, or every 15ms while a debounce
// confirmation is pending, per the main loop's tick budget rule).
func (c *Controller) Sample(now uint32) {
	if c.hasOverride {
		return
	}
	v := c.cc1.ReadVolts()
	if v2 := c.cc2.ReadVolts(); v2 > v {
		v = v2
	}
	level := Classify(v)

	if !c.haveSample || level != c.pending {
		c.pending = level
		c.pendingSince = now
		c.haveSample = true
		return
	}
	if now-c.pendingSince >= debounceMillis && level != c.accepted {
		c.accept(level)
	}
}

// Debouncing reports whether a confirmation sample is currently
// pending, so the main loop can shorten its tick to 15ms per spec.
func (c *Controller) Debouncing() bool {
	return c.haveSample && c.pending != c.accepted
}

func (c *Controller) accept(level Level) {
	c.accepted = level
	if c.matrix != nil {
		c.matrix.SetBrightness(c.budgets[level])
	}
	if c.rails != nil {
		c.rails.Set(level != LevelUnknown)
	}
}

// UpdateStatusLED drives the breathing/steady status LED pattern for
// the currently accepted level. now is the board clock in
// milliseconds.
func (c *Controller) UpdateStatusLED(now uint32) {
	if c.led == nil {
		return
	}
	switch c.accepted {
	case Level1_5A:
		c.led.SetDutyCycle(gaussianBreath(now, breathPeriodMillis, breathPeak, breathFloor))
	case Level3A:
		c.led.SetDutyCycle(steady3A)
	default:
		c.led.SetDutyCycle(0)
	}
}

// gaussianBreath computes a duty cycle between floor and peak that
// rises and falls once per period following a Gaussian bump centered
// on the midpoint of the cycle.
func gaussianBreath(now, periodMillis uint32, peak, floor float64) float64 {
	phase := float64(now%periodMillis) / float64(periodMillis) // 0..1
	x := (phase - 0.5) * 2 // -1..1
	const sigma = 0.4
	g := math.Exp(-(x * x) / (2 * sigma * sigma))
	return floor + (peak-floor)*g
}

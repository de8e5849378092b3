package protocol

import (
	"fmt"
	"strings"

	"github.com/nifri2/blinkmatrix/internal/frame"
	"github.com/nifri2/blinkmatrix/internal/matrix"
	"github.com/nifri2/blinkmatrix/internal/power"
)

func handleVER(d *Dispatcher, args []string) string {
	return "ACK VER " + FirmwareVersion
}

func handleFRE(d *Dispatcher, args []string) string {
	return fmt.Sprintf("ACK FRE %d %d", d.pool.FreeAnimationSlots(), d.pool.FreeFrameSlots())
}

func handleQUE(d *Dispatcher, args []string) string {
	anims := d.pool.Animations()
	parts := make([]string, 0, len(anims))
	for i, a := range anims {
		remaining := a.Duration
		if i == 0 {
			if r, ok := d.player.HeadRemaining(); ok {
				remaining = r
			}
		}
		parts = append(parts, fmt.Sprintf("(%d,%d)", remaining, a.NumFrames))
	}
	if len(parts) == 0 {
		return "ACK QUE"
	}
	return "ACK QUE " + strings.Join(parts, " ")
}

func handleRST(d *Dispatcher, args []string) string {
	d.pool.Reset()
	d.player.Reset()
	d.loadingFrame = nil
	if d.matrix != nil {
		d.matrix.Clear()
	}
	return "ACK RST"
}

func handleDBG(d *Dispatcher, args []string) string {
	loading := d.loadingFrame != nil
	return fmt.Sprintf("DBG freeAnimations=%d freeFrames=%d loadingFrame=%t",
		d.pool.FreeAnimationSlots(), d.pool.FreeFrameSlots(), loading)
}

func handleCLC(d *Dispatcher, args []string) string {
	switch {
	case len(args) == 0:
		v, ok := d.matrix.ColorCorrection()
		if !ok {
			return "ACK CLC 000000"
		}
		return fmt.Sprintf("ACK CLC %06X", v)
	case len(args) == 1 && args[0] == "RST":
		d.matrix.ClearColorCorrection()
		if err := d.prefs.ResetColorCorrection(); err != nil {
			d.diag.Error("reset color correction", err)
		}
		return "ACK CLC 000000"
	case len(args) == 1:
		v, err := parseHex6(args[0])
		if err != nil {
			return "NAK CLC ARG"
		}
		d.matrix.SetColorCorrection(v)
		if err := d.prefs.SetColorCorrection(v); err != nil {
			d.diag.Error("save color correction", err)
		}
		return fmt.Sprintf("ACK CLC %06X", v)
	default:
		return "NAK CLC ARG"
	}
}

func handleDIM(d *Dispatcher, args []string) string {
	switch len(args) {
	case 0:
		return fmt.Sprintf("ACK DIM %d", d.matrix.Brightness())
	case 1:
		v, err := parseUint32(args[0])
		if err != nil || v > 255 {
			return "NAK DIM ARG"
		}
		d.matrix.SetBrightness(uint8(v))
		if err := d.prefs.SetBrightness(v); err != nil {
			d.diag.Error("save brightness", err)
		}
		return fmt.Sprintf("ACK DIM %d", v)
	default:
		return "NAK DIM ARG"
	}
}

func handleDTH(d *Dispatcher, args []string) string {
	if len(args) != 1 {
		return "NAK DTH ARG"
	}
	switch args[0] {
	case "ON":
		d.matrix.SetDither(true)
		if err := d.prefs.SetDither(true); err != nil {
			d.diag.Error("save dither", err)
		}
		return "ACK DTH ON"
	case "OFF":
		d.matrix.SetDither(false)
		if err := d.prefs.SetDither(false); err != nil {
			d.diag.Error("save dither", err)
		}
		return "ACK DTH OFF"
	default:
		return "NAK DTH ARG"
	}
}

func handleROT(d *Dispatcher, args []string) string {
	switch len(args) {
	case 0:
		return "ACK ROT " + d.matrix.Rotation().String()
	case 1:
		r, ok := matrix.ParseRotation(args[0])
		if !ok {
			return "NAK ROT ARG"
		}
		d.matrix.SetRotation(r)
		if err := d.prefs.SetRotation(rotationDegrees(r)); err != nil {
			d.diag.Error("save rotation", err)
		}
		return "ACK ROT " + r.String()
	default:
		return "NAK ROT ARG"
	}
}

func rotationDegrees(r matrix.Rotation) uint32 {
	switch r {
	case matrix.Rotation90:
		return 90
	case matrix.Rotation180:
		return 180
	case matrix.Rotation270:
		return 270
	default:
		return 0
	}
}

func handlePWR(d *Dispatcher, args []string) string {
	switch {
	case len(args) == 0:
		return "ACK PWR " + powerLevelToken(d.power.Accepted())
	case len(args) == 1 && args[0] == "RST":
		d.power.ClearOverride()
		if err := d.prefs.ResetPowerOverride(); err != nil {
			d.diag.Error("reset power override", err)
		}
		return "ACK PWR " + powerLevelToken(d.power.Accepted())
	case len(args) == 1:
		lvl, ok := powerLevelFromToken(args[0])
		if !ok {
			return "NAK PWR ARG"
		}
		d.power.SetOverride(lvl)
		if err := d.prefs.SetPowerOverride(uint32(lvl)); err != nil {
			d.diag.Error("save power override", err)
		}
		return "ACK PWR " + args[0]
	default:
		return "NAK PWR ARG"
	}
}

func powerLevelToken(l power.Level) string {
	switch l {
	case power.Level3A:
		return "3.0A"
	case power.Level1_5A:
		return "1.5A"
	case power.Level0_5A:
		return "0.5A"
	default:
		return "0.5A"
	}
}

func powerLevelFromToken(s string) (power.Level, bool) {
	switch s {
	case "3.0A":
		return power.Level3A, true
	case "1.5A":
		return power.Level1_5A, true
	case "0.5A":
		return power.Level0_5A, true
	default:
		return 0, false
	}
}

func handleANM(d *Dispatcher, args []string) string {
	if len(args) != 1 {
		return "NAK ANM ARG"
	}
	ms, err := parseUint32(args[0])
	if err != nil {
		return "NAK ANM ARG"
	}
	if !d.pool.StartLoading(ms) {
		return "NAK ANM UFL"
	}
	d.loadingFrame = nil
	return fmt.Sprintf("ACK ANM %d", ms)
}

func handleFRM(d *Dispatcher, args []string) string {
	if len(args) != 1 {
		return "NAK FRM ARG"
	}
	ms, err := parseUint32(args[0])
	if err != nil {
		return "NAK FRM ARG"
	}
	f, ok := d.pool.GetFrameToLoad()
	if !ok {
		// Folds both "frame ring full" and "no animation currently
		// loading" into UFL: UFL is the only resource failure code the
		// wire protocol defines for this command, and a FRM issued outside
		// an ANM/DON bracket is indistinguishable from resource
		// exhaustion at this layer.
		return "NAK FRM UFL"
	}
	f.SetDuration(ms)
	d.loadingFrame = f
	return fmt.Sprintf("ACK FRM %d", ms)
}

func handleRGB(d *Dispatcher, args []string) string {
	if len(args) != 1 {
		return "NAK RGB ARG"
	}
	if d.loadingFrame == nil {
		return "NAK RGB NFM"
	}
	hex := args[0]
	if len(hex) != frame.Width*6 {
		return "NAK RGB ARG"
	}
	if d.loadingFrame.IsComplete() {
		return "NAK RGB OFL"
	}
	row, err := d.loadingFrame.LoadHex(hex)
	if err != nil {
		return "NAK RGB ARG"
	}
	if d.loadingFrame.IsComplete() {
		d.loadingFrame = nil
	}
	return fmt.Sprintf("ACK RGB %d", row)
}

func handleDON(d *Dispatcher, args []string) string {
	if !d.pool.IsLoadingAnimation() {
		return "NAK DON NOA"
	}
	d.pool.FinalizeLoading()
	d.loadingFrame = nil
	return "ACK DON ANM"
}

func handleNXT(d *Dispatcher, args []string) string {
	d.pool.SkipCurrent()
	return "ACK NXT"
}

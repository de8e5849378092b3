package main

import (
	"machine"
	"time"

	"github.com/nifri2/blinkmatrix/internal/diag"
	"github.com/nifri2/blinkmatrix/internal/loop"
	"github.com/nifri2/blinkmatrix/internal/matrix"
	"github.com/nifri2/blinkmatrix/internal/pairing"
	"github.com/nifri2/blinkmatrix/internal/player"
	"github.com/nifri2/blinkmatrix/internal/pool"
	"github.com/nifri2/blinkmatrix/internal/power"
	"github.com/nifri2/blinkmatrix/internal/prefs"
	"github.com/nifri2/blinkmatrix/internal/protocol"
	"github.com/nifri2/blinkmatrix/internal/transport"

	"tinygo.org/x/drivers/ws2812"
)

// Physical pinout, per spec §6. Kept as package vars rather than
// constants because machine.Pin/machine.ADC values are not typed
// constants in TinyGo's board packages.
var (
	pinLEDData = machine.GP2

	pinMatrixPowerA = machine.GP4
	pinMatrixPowerB = machine.GP5

	pinStatusPower   = machine.GP6
	pinStatusOverrun = machine.GP7

	pinCC1 = machine.ADC{Pin: machine.GP26}
	pinCC2 = machine.ADC{Pin: machine.GP27}

	pinTouch0 = machine.GP10
	pinTouch1 = machine.GP11
	pinTouch2 = machine.GP12
)

// buildVersion is set at compile time via -ldflags, the same
// injection idiom the teacher uses for buildRole/buildAddress.
var buildVersion string

func main() {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	for _, pin := range []machine.Pin{pinMatrixPowerA, pinMatrixPowerB, pinStatusPower, pinStatusOverrun} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	for _, pin := range []machine.Pin{pinTouch0, pinTouch1, pinTouch2} {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	}
	pinLEDData.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinCC1.Configure(machine.ADCConfig{})
	pinCC2.Configure(machine.ADCConfig{})

	logger := diag.New(nil)
	logger.SetCantHappenSink(func(code string) {
		pinStatusOverrun.High()
	})
	logger.Boot("booting", "version", buildVersion)

	backend := prefs.NewMemoryBackend()
	prefStore, err := prefs.Open(backend)
	if err != nil {
		logger.Error("open preferences", err)
		prefStore, _ = prefs.Open(prefs.NewMemoryBackend())
	}

	strip := ws2812.New(pinLEDData)
	rotation := matrix.Rotation0
	if v, ok := prefStore.Rotation(); ok {
		if r, ok := matrix.ParseRotation(rotationToken(v)); ok {
			rotation = r
		}
	}
	mtx := matrix.New(matrix.Config{Width: 16, Height: 16, Rotation: rotation}, &strip)
	if v, ok := prefStore.ColorCorrection(); ok {
		mtx.SetColorCorrection(v)
	}
	if v, ok := prefStore.Brightness(); ok {
		mtx.SetBrightness(uint8(v))
	}
	if on, ok := prefStore.Dither(); ok {
		mtx.SetDither(on)
	}

	nowMillis := func() uint32 { return uint32(time.Now().UnixMilli()) }

	animPool := pool.New()
	animPool.SetDiag(logger)
	pl := player.New(animPool, nowMillis)

	pc := power.New(
		adcVoltageSensor{pinCC1},
		adcVoltageSensor{pinCC2},
		pinSwitch{pinMatrixPowerA, pinMatrixPowerB},
		pwmLED{pinStatusPower},
		mtx,
	)
	if v, ok := prefStore.PowerOverride(); ok {
		pc.SetOverride(power.Level(v))
	}

	dispatcher := protocol.New(animPool, pl, mtx, prefStore, pc, logger)

	buttons := [3]pairing.Button{
		digitalButton{pinTouch0},
		digitalButton{pinTouch1},
		digitalButton{pinTouch2},
	}
	pairingMachine := pairing.New(buttons, nowMillis, nil)

	mux := transport.New(transport.NewUARTStream(uartAdapter{uart}), transport.NopStream{}, pairingMachine.Active)

	loop.Run(loop.Options{
		Now:          nowMillis,
		Sleep:        func(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) },
		Transport:    mux,
		Dispatcher:   dispatcher,
		Player:       pl,
		Matrix:       mtx,
		Power:        pc,
		Pairing:      pairingMachine,
		AcceptButton: buttons[0],
	})
}

func rotationToken(degrees uint32) string {
	switch degrees {
	case 90:
		return "090"
	case 180:
		return "180"
	case 270:
		return "270"
	default:
		return "000"
	}
}

// uartAdapter narrows machine.UART's Buffered (uint32) down to the
// int the transport.UARTPort interface expects.
type uartAdapter struct {
	*machine.UART
}

func (u uartAdapter) Buffered() int { return int(u.UART.Buffered()) }

// adcVoltageSensor converts a raw 16-bit ADC reading to volts,
// assuming a 3.3V reference rail.
type adcVoltageSensor struct {
	adc machine.ADC
}

func (a adcVoltageSensor) ReadVolts() float64 {
	return float64(a.adc.Get()) / 65535 * 3.3
}

// pinSwitch energises both matrix power-enable pins together.
type pinSwitch struct {
	a, b machine.Pin
}

func (p pinSwitch) Set(on bool) {
	if on {
		p.a.High()
		p.b.High()
		return
	}
	p.a.Low()
	p.b.Low()
}

// pwmLED drives a status LED from a duty-cycle fraction on a plain
// digital pin: the pin is high while the fraction is at least one
// half and low otherwise. Intermediate brightness is not reproduced,
// so the breathing pattern shows as the LED switching on around the
// middle of each cycle and off near its ends.
type pwmLED struct {
	pin machine.Pin
}

func (p pwmLED) SetDutyCycle(fraction float64) {
	if fraction >= 0.5 {
		p.pin.High()
		return
	}
	p.pin.Low()
}

// digitalButton adapts a capacitive touch pin to pairing.Button.
type digitalButton struct {
	pin machine.Pin
}

func (b digitalButton) Pressed() bool {
	return b.pin.Get()
}

// Package loop implements the 30ms cooperative main loop tick: power
// update, then either the pairing UI or {display + protocol
// service}, then a sleep to the remaining tick budget. It is grounded
// on the teacher's main.go top-level dispatch and cmd/worker.go's
// displayAnimation loop shape, collapsed from a goroutine-per-
// subsystem model into the single cooperative loop spec §5 requires
// (no interrupts mutate shared state; UART is drained synchronously).
package loop

import (
	"github.com/nifri2/blinkmatrix/internal/matrix"
	"github.com/nifri2/blinkmatrix/internal/pairing"
	"github.com/nifri2/blinkmatrix/internal/player"
	"github.com/nifri2/blinkmatrix/internal/power"
	"github.com/nifri2/blinkmatrix/internal/protocol"
	"github.com/nifri2/blinkmatrix/internal/transport"
)

// tickBudgetMillis is the normal cooperative tick length.
const tickBudgetMillis uint32 = 30

// debounceTickBudgetMillis is the shortened tick used while the power
// controller has a pending debounce confirmation, so the 15ms
// confirmation window is not overshot by a full 30ms sleep.
const debounceTickBudgetMillis uint32 = 15

// Options wires every collaborator the loop needs. Now and Sleep are
// injected the same way the player's clock is, so the loop can be
// driven deterministically in tests.
type Options struct {
	Now          func() uint32
	Sleep        func(millis uint32)
	Transport    *transport.Multiplexer
	Dispatcher   *protocol.Dispatcher
	Player       *player.Player
	Matrix       *matrix.Matrix
	Power        *power.Controller
	Pairing      *pairing.Machine
	AcceptButton pairing.Button
}

// Tick runs exactly one cooperative iteration and returns the number
// of milliseconds it should sleep before the next one. Splitting Tick
// out of Run lets tests exercise one iteration at a time without an
// infinite loop.
func Tick(o Options) uint32 {
	start := o.Now()

	o.Power.Sample(start)
	o.Power.UpdateStatusLED(start)

	accept := o.AcceptButton != nil && o.AcceptButton.Pressed()
	o.Pairing.Tick(accept)

	if o.Pairing.InProgress() {
		o.Matrix.Render(o.Pairing.Overlay())
	} else {
		o.Matrix.Render(o.Player.CurrentFrame())
		serviceProtocol(o)
	}

	budget := tickBudgetMillis
	if o.Power.Debouncing() {
		budget = debounceTickBudgetMillis
	}
	elapsed := o.Now() - start
	if elapsed >= budget {
		return 0
	}
	return budget - elapsed
}

// Run drives Tick forever, sleeping between iterations via
// o.Sleep. It never returns.
func Run(o Options) {
	for {
		rest := Tick(o)
		if rest > 0 {
			o.Sleep(rest)
		}
	}
}

// serviceProtocol drains every byte currently buffered on the active
// transport through the dispatcher, replying to each completed line
// before the next one is read -- per spec §5's ordering guarantee.
func serviceProtocol(o Options) {
	stream := o.Transport.Current()
	if stream == nil {
		return
	}
	for stream.Available() > 0 {
		b, err := stream.ReadByte()
		if err != nil {
			break
		}
		if reply, ready := o.Dispatcher.HandleByte(b); ready {
			stream.Println(reply)
		}
	}
}

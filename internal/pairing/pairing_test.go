package pairing

import "testing"

// toggleButton is a Button whose pressed state the test controls
// directly.
type toggleButton struct{ pressed bool }

func (b *toggleButton) Pressed() bool { return b.pressed }

func newTestMachine(clock *uint32) (*Machine, [3]*toggleButton) {
	btns := [3]*toggleButton{{}, {}, {}}
	m := New([3]Button{btns[0], btns[1], btns[2]}, func() uint32 { return *clock }, nil)
	return m, btns
}

func TestIdleUntilAllThreeHeld(t *testing.T) {
	var now uint32
	m, btns := newTestMachine(&now)
	btns[0].pressed = true
	btns[1].pressed = true
	m.Tick(false)
	if m.state != StateIdle {
		t.Errorf("state = %v, want StateIdle with only two buttons held", m.state)
	}
}

func TestHoldingReturnsToIdleOnEarlyRelease(t *testing.T) {
	var now uint32
	m, btns := newTestMachine(&now)
	for _, b := range btns {
		b.pressed = true
	}
	m.Tick(false)
	if m.state != StateHolding {
		t.Fatalf("state = %v, want StateHolding", m.state)
	}
	btns[1].pressed = false
	now = 100
	m.Tick(false)
	if m.state != StateIdle {
		t.Errorf("state = %v, want StateIdle after early release", m.state)
	}
}

func TestHoldThresholdArmsPairing(t *testing.T) {
	var now uint32
	m, btns := newTestMachine(&now)
	for _, b := range btns {
		b.pressed = true
	}
	m.Tick(false) // enters StateHolding at t=0

	now = holdThresholdMillis - 1
	m.Tick(false)
	if m.state != StateHolding {
		t.Fatalf("state = %v, want still StateHolding just before threshold", m.state)
	}

	now = holdThresholdMillis
	m.Tick(false)
	if m.state != StateInProgress {
		t.Fatalf("state = %v, want StateInProgress at threshold", m.state)
	}
	if m.PIN() < 100000 || m.PIN() > 999999 {
		t.Errorf("PIN = %d, want a 6-digit code", m.PIN())
	}
}

func TestAcceptDuringPairingActivatesBLE(t *testing.T) {
	var now uint32
	m, btns := newTestMachine(&now)
	for _, b := range btns {
		b.pressed = true
	}
	m.Tick(false)
	now = holdThresholdMillis
	m.Tick(false)
	if !m.InProgress() {
		t.Fatal("expected InProgress after arming pairing")
	}

	m.Tick(true)
	if !m.Active() {
		t.Error("expected Active after an accept press")
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	var now uint32
	m, btns := newTestMachine(&now)
	for _, b := range btns {
		b.pressed = true
	}
	m.Tick(false)
	now = holdThresholdMillis
	m.Tick(false)
	m.Tick(true)
	if !m.Active() {
		t.Fatal("setup: expected Active before Reset")
	}
	m.Reset()
	if m.Active() || m.InProgress() {
		t.Error("Reset should return the machine fully to idle")
	}
}

func TestOverlayShowsLogoBeforePairing(t *testing.T) {
	var now uint32
	m, _ := newTestMachine(&now)
	if m.Overlay() != &m.logoFrame {
		t.Error("Overlay should be the BT logo while idle")
	}
}

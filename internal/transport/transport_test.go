package transport

import "testing"

// fakeUARTPort is a byte-queue-backed stand-in for machine.UART.
type fakeUARTPort struct {
	in  []byte
	out []byte
}

func (f *fakeUARTPort) Buffered() int { return len(f.in) }

func (f *fakeUARTPort) ReadByte() (byte, error) {
	if len(f.in) == 0 {
		return 0, ErrNoData
	}
	b := f.in[0]
	f.in = f.in[1:]
	return b, nil
}

func (f *fakeUARTPort) Write(p []byte) (int, error) {
	f.out = append(f.out, p...)
	return len(p), nil
}

func TestUARTStreamRelaysAvailableAndReadByte(t *testing.T) {
	port := &fakeUARTPort{in: []byte("AB")}
	s := NewUARTStream(port)

	if got := s.Available(); got != 2 {
		t.Fatalf("Available = %d, want 2", got)
	}
	b, err := s.ReadByte()
	if err != nil || b != 'A' {
		t.Fatalf("ReadByte = %q,%v, want 'A',nil", b, err)
	}
	if got := s.Available(); got != 1 {
		t.Errorf("Available after read = %d, want 1", got)
	}
}

func TestUARTStreamPrintlnAppendsNewline(t *testing.T) {
	port := &fakeUARTPort{}
	s := NewUARTStream(port)
	s.Println("ACK VER 1.0")
	if got := string(port.out); got != "ACK VER 1.0\n" {
		t.Errorf("out = %q", got)
	}
}

func TestUARTStreamPrintlnUintFormatsBase(t *testing.T) {
	port := &fakeUARTPort{}
	s := NewUARTStream(port)
	s.PrintlnUint(255, 16)
	if got := string(port.out); got != "ff\n" {
		t.Errorf("out = %q, want \"ff\\n\"", got)
	}
}

func TestMultiplexerPrefersWirelessWhenActive(t *testing.T) {
	wired := NewUARTStream(&fakeUARTPort{})
	wireless := NopStream{}
	active := true
	m := New(wired, wireless, func() bool { return active })

	if m.Current() != Stream(wireless) {
		t.Error("Current should return the wireless stream while active")
	}
	active = false
	if m.Current() != Stream(wired) {
		t.Error("Current should fall back to the wired stream once inactive")
	}
}

func TestMultiplexerDefaultsToWiredWithNilSelector(t *testing.T) {
	wired := NewUARTStream(&fakeUARTPort{})
	m := New(wired, NopStream{}, nil)
	if m.Current() != Stream(wired) {
		t.Error("Current should default to wired when no selector is installed")
	}
}

func TestNopStreamNeverHasData(t *testing.T) {
	var n NopStream
	if n.Available() != 0 {
		t.Error("NopStream.Available should always be 0")
	}
	if _, err := n.ReadByte(); err != ErrNoData {
		t.Errorf("ReadByte err = %v, want ErrNoData", err)
	}
}

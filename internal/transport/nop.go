package transport

// NopStream is a Stream that never has data and discards writes. It
// stands in for the wireless transport until a real Bluetooth stack
// is wired in -- board bring-up for the radio is an external
// collaborator per the spec's scope, so the core only needs its
// capability-set contract satisfied.
type NopStream struct{}

// Available implements Stream.
func (NopStream) Available() int { return 0 }

// ReadByte implements Stream.
func (NopStream) ReadByte() (byte, error) { return 0, ErrNoData }

// Print implements Stream.
func (NopStream) Print(string) {}

// Println implements Stream.
func (NopStream) Println(string) {}

// PrintlnUint implements Stream.
func (NopStream) PrintlnUint(uint32, int) {}

package capture

import "sync/atomic"

// freshBit marks the middle slot as holding a frame the consumer has not seen.
const freshBit = 4

// tripleBuffer hands frames from exactly one producer goroutine to exactly
// one consumer goroutine. Neither side ever waits for the other and a
// reader never sees a frame while it is being written.
//
// The producer owns back, the consumer owns front, and middle is exchanged
// atomically between them.
type tripleBuffer struct {
	slots  [3]Frame
	back   uint32
	front  uint32
	middle atomic.Uint32
}

func newTripleBuffer(bins int) *tripleBuffer {
	t := &tripleBuffer{back: 0, front: 2}
	for i := range t.slots {
		t.slots[i] = make(Frame, bins)
	}
	t.middle.Store(1)
	return t
}

// writable returns the producer's private slot.
func (t *tripleBuffer) writable() Frame {
	return t.slots[t.back]
}

// publish makes the producer's slot the newest frame.
func (t *tripleBuffer) publish() {
	old := t.middle.Swap(t.back | freshBit)
	t.back = old &^ freshBit
}

// latest returns the newest published frame and whether it is new since
// the previous call. The returned slot stays valid until the next call.
func (t *tripleBuffer) latest() (Frame, bool) {
	if t.middle.Load()&freshBit == 0 {
		return t.slots[t.front], false
	}
	old := t.middle.Swap(t.front)
	t.front = old &^ freshBit
	return t.slots[t.front], true
}

package observer

import (
	"bytes"
	"sync"

	"github.com/corewar-arena/corewar/vm"
)

// AffWriter buffers a match's aff() byte output and broadcasts each byte
// as it arrives, replacing the teacher's generic stdout EventWriter with
// the one output channel this VM actually produces.
type AffWriter struct {
	broadcaster *Broadcaster
	sessionID   string
	buffer      *bytes.Buffer
	mutex       sync.Mutex
}

// NewAffWriter returns a writer that both buffers and broadcasts aff() bytes
// for one match session.
func NewAffWriter(broadcaster *Broadcaster, sessionID string) *AffWriter {
	return &AffWriter{
		broadcaster: broadcaster,
		sessionID:   sessionID,
		buffer:      &bytes.Buffer{},
	}
}

// Handler returns a vm.AffHandler bound to this writer, suitable for
// VirtualMachine.SetAffHandler.
func (w *AffWriter) Handler() vm.AffHandler {
	return func(b byte) {
		w.mutex.Lock()
		defer w.mutex.Unlock()

		w.buffer.WriteByte(b)
		if w.broadcaster != nil {
			w.broadcaster.BroadcastAff(w.sessionID, 0, b)
		}
	}
}

// GetBufferAndClear returns the accumulated bytes and clears the buffer.
func (w *AffWriter) GetBufferAndClear() []byte {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	out := append([]byte(nil), w.buffer.Bytes()...)
	w.buffer.Reset()
	return out
}

package store

import "golang.org/x/exp/slices"

// Chunk is one destination file's share of a flushed write buffer: the
// bytes to append and the logical file index they belong to.
type Chunk struct {
	Index uint16
	Bytes []byte
}

// writeBuffer accumulates a single commit's bytes and tracks the logical
// (index, offset) those bytes will occupy once flushed to files, the same
// role database/mpt/write_buffer.go's WriteBuffer plays for Carmen's
// forest — except synchronous, since this module's commit protocol
// (§4.3) requires the whole batch plus the trailing meta record to be
// durable before Commit returns.
type writeBuffer struct {
	chunks []Chunk
	index  uint16 // logical file index new bytes are currently destined for
	offset uint32 // logical offset within that file of the next byte
}

// newWriteBuffer starts a buffer whose first byte lands at (index, offset)
// — the current end of the store's active file.
func newWriteBuffer(index uint16, offset uint32) *writeBuffer {
	w := &writeBuffer{index: index, offset: offset}
	w.chunks = append(w.chunks, Chunk{Index: index})
	return w
}

// Position returns the logical (index, offset) the next written byte
// would land at, letting node records capture their own pointers before
// the bytes are durable.
func (w *writeBuffer) Position() (uint16, uint32) {
	return w.index, w.offset
}

// Write appends p to the buffer, rolling the logical position (and
// starting a new chunk) whenever the running offset would exceed
// MaxFileSize.
func (w *writeBuffer) Write(p []byte) {
	for len(p) > 0 {
		room := MaxFileSize - int(w.offset)
		n := len(p)
		if n > room {
			n = room
		}
		last := &w.chunks[len(w.chunks)-1]
		last.Bytes = slices.Grow(last.Bytes, n)
		last.Bytes = append(last.Bytes, p[:n]...)
		w.offset += uint32(n)
		p = p[n:]
		if len(p) > 0 {
			w.index++
			w.offset = 0
			w.chunks = append(w.chunks, Chunk{Index: w.index})
		}
	}
}

// Flush returns the accumulated bytes split into per-file chunks and
// resets the buffer to start fresh at the current logical position,
// which becomes the base for the next commit's writeBuffer.
func (w *writeBuffer) Flush() []Chunk {
	out := make([]Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		if len(c.Bytes) > 0 {
			out = append(out, c)
		}
	}
	w.chunks = []Chunk{{Index: w.index}}
	return out
}

package store

import (
	"bytes"
	"testing"
)

// FuzzWriteBufferRollover drives the write buffer's rollover logic with
// arbitrary-length writes starting 50 bytes short of MaxFileSize, so that
// every input longer than 50 bytes forces a roll, and checks that the flushed chunks
// reassemble to exactly the bytes written, mirroring
// buffered_file_fuzz_test.go's own write-then-read-back check.
func FuzzWriteBufferRollover(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x01, 0x02, 0x03})
	f.Add(bytes.Repeat([]byte{0xFF}, 200))

	f.Fuzz(func(t *testing.T, raw []byte) {
		if len(raw) > 4096 {
			raw = raw[:4096]
		}

		const startOffset = MaxFileSize - 50
		wb := newWriteBuffer(1, startOffset)
		wb.Write(raw)
		chunks := wb.Flush()

		var reassembled []byte
		for i, c := range chunks {
			if c.Index != uint16(1+i) {
				t.Fatalf("chunk %d has index %d, want %d", i, c.Index, 1+i)
			}
			reassembled = append(reassembled, c.Bytes...)
		}
		if !bytes.Equal(reassembled, raw) {
			t.Fatalf("flushed chunks reassemble to %x, want %x", reassembled, raw)
		}
	})
}

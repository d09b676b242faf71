// Package output collects the byte stream of a command pipe into an
// owned buffer and optionally decomposes it into line views.
package output

import (
	"bytes"
	"io"
)

// Mode selects the shape of the collected output.
type Mode int

// Collection modes. Lines keeps the line views aliased into the raw
// buffer; LinesCopy duplicates the buffer first so the blob form and
// the line form stay valid independently.
const (
	Unbroken Mode = iota
	Lines
	LinesCopy
)

// readChunk is the fixed read size used to drain a pipe
const readChunk = 4096

// Output is a caller-owned capture container. Buf holds the raw bytes
// read until end-of-stream. In line modes, Lines holds one view per
// line; each view is a subslice of a single backing buffer and the
// newline bytes are excluded by the view bounds rather than copied out.
// Err records the mid-stream read error, if any, so a capture that
// was cut short stays distinguishable from a complete one even when
// the caller ignores the Collect return value.
type Output struct {
	Buf   []byte
	Lines [][]byte
	Err   error
}

// Reset empties the container.
func (o *Output) Reset() {
	o.Buf = nil
	o.Lines = nil
	o.Err = nil
}

// Collect reads r until end-of-stream and fills the container
// according to mode. Reading nothing at all is success: the container
// stays empty and the error is nil. A mid-stream read error returns
// that error with whatever was read so far left in Buf and recorded
// in Err.
func (o *Output) Collect(r io.Reader, mode Mode) error {
	return o.CollectN(r, 0, mode)
}

// CollectN is Collect with a capture cap. Bytes beyond max are read
// and discarded so the writer is never left blocked on a full pipe;
// max 0 means unlimited.
func (o *Output) CollectN(r io.Reader, max Size, mode Mode) error {
	o.Reset()

	var buf []byte
	tmp := make([]byte, readChunk)
	for {
		n, err := r.Read(tmp)
		if n > 0 {
			keep := n
			if max > 0 && Size(len(buf))+Size(n) > max {
				keep = int(max) - len(buf)
			}
			if keep > 0 {
				buf = append(buf, tmp[:keep]...)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			o.Buf = buf
			o.Err = err
			return err
		}
	}

	if len(buf) == 0 {
		return nil
	}
	o.Buf = buf

	if mode == Unbroken {
		return nil
	}
	src := buf
	if mode == LinesCopy {
		src = append([]byte(nil), buf...)
	}
	o.Lines = splitLines(src)
	return nil
}

// splitLines decomposes buf into per-line views without allocating
// per-line storage. A trailing run without a final newline still
// yields a last line.
func splitLines(buf []byte) [][]byte {
	lines := make([][]byte, 0, bytes.Count(buf, []byte{'\n'})+1)
	for i := 0; i < len(buf); {
		j := bytes.IndexByte(buf[i:], '\n')
		if j < 0 {
			lines = append(lines, buf[i:])
			break
		}
		lines = append(lines, buf[i:i+j])
		i += j + 1
	}
	return lines
}

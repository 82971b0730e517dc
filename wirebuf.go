// Copyright 2025 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"fmt"
)

const (
	// slotWidth is the size of a reserved length slot: 0x83 followed by
	// three length octets.
	slotWidth = 4

	// maxSlotLength is the largest content length a slot can describe.
	maxSlotLength = 1<<24 - 1
)

// SlotHandle records where a reserved length slot lives in a WireBuffer.
type SlotHandle struct {
	off   int
	width int
}

// Offset is the position of the slot's first octet.
func (h SlotHandle) Offset() int { return h.off }

// WireBuffer is a bounded byte region with a write cursor and a read cursor.
//
// When encoding, a container's length is unknown until its contents have
// been written. The buffer reserves a fixed-width long-form length in place
// and overwrites it once the contents are complete, so nothing written after
// the slot ever moves. Long-form lengths wider than necessary are legal BER.
//
// When decoding, every read is bounds-checked against the bytes actually
// held. Sub-buffers returned by ReadNested remember their offset in the
// enclosing message so positions stay absolute.
type WireBuffer struct {
	buf     []byte
	rd      int
	limit   int
	base    int
	pending []int
}

// NewWireBuffer returns an empty buffer that refuses to grow past capacity.
func NewWireBuffer(capacity int) *WireBuffer {
	initial := capacity
	if initial > 1500 {
		initial = 1500
	}
	return &WireBuffer{buf: make([]byte, 0, initial), limit: capacity}
}

// NewReadBuffer returns a buffer positioned at the start of b.
func NewReadBuffer(b []byte) *WireBuffer {
	return &WireBuffer{buf: b, limit: len(b)}
}

// Bytes returns everything written so far. The slice aliases the buffer.
func (w *WireBuffer) Bytes() []byte { return w.buf }

// Len is the write cursor.
func (w *WireBuffer) Len() int { return len(w.buf) }

// Remaining is the number of unread bytes.
func (w *WireBuffer) Remaining() int { return len(w.buf) - w.rd }

// Pos is the absolute position of the read cursor in the outermost message.
func (w *WireBuffer) Pos() int { return w.base + w.rd }

// Unresolved reports the number of length slots reserved but not resolved.
func (w *WireBuffer) Unresolved() int { return len(w.pending) }

func (w *WireBuffer) grow(n int) error {
	if len(w.buf)+n > w.limit {
		return fmt.Errorf("%w: %d bytes would exceed %d", ErrMessageTooLarge, len(w.buf)+n, w.limit)
	}
	return nil
}

// WriteByte implements io.ByteWriter.
func (w *WireBuffer) WriteByte(c byte) error {
	if err := w.grow(1); err != nil {
		return err
	}
	w.buf = append(w.buf, c)
	return nil
}

// Write implements io.Writer. It writes all of p or nothing.
func (w *WireBuffer) Write(p []byte) (int, error) {
	if err := w.grow(len(p)); err != nil {
		return 0, err
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteTagged writes a complete element with a minimal length.
func (w *WireBuffer) WriteTagged(tag byte, content []byte) error {
	length, err := marshalLength(len(content))
	if err != nil {
		return err
	}
	if err = w.grow(1 + len(length) + len(content)); err != nil {
		return err
	}
	w.buf = append(w.buf, tag)
	w.buf = append(w.buf, length...)
	w.buf = append(w.buf, content...)
	return nil
}

// ReserveLengthSlot writes a placeholder length and returns its handle.
func (w *WireBuffer) ReserveLengthSlot() (SlotHandle, error) {
	if err := w.grow(slotWidth); err != nil {
		return SlotHandle{}, err
	}
	h := SlotHandle{off: len(w.buf), width: slotWidth}
	w.buf = append(w.buf, 0x80|(slotWidth-1), 0, 0, 0)
	w.pending = append(w.pending, h.off)
	return h, nil
}

// OpenTagged writes tag followed by a reserved length slot.
func (w *WireBuffer) OpenTagged(tag byte) (SlotHandle, error) {
	if err := w.WriteByte(tag); err != nil {
		return SlotHandle{}, err
	}
	return w.ReserveLengthSlot()
}

// Resolve sets the slot to the number of bytes written after it.
func (w *WireBuffer) Resolve(h SlotHandle) error {
	return w.ResolveLength(h, len(w.buf)-(h.off+h.width))
}

// ResolveLength patches an explicit content length into the slot.
func (w *WireBuffer) ResolveLength(h SlotHandle, n int) error {
	idx := -1
	for i, off := range w.pending {
		if off == h.off {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Sprintf("snmpcodec: length slot at %d is not open", h.off))
	}
	if n < 0 || n > maxSlotLength {
		return fmt.Errorf("%w: content of %d bytes does not fit a length slot", ErrMessageTooLarge, n)
	}
	w.buf[h.off] = 0x80 | byte(h.width-1)
	for i := h.width - 1; i > 0; i-- {
		w.buf[h.off+i] = byte(n)
		n >>= 8
	}
	w.pending = append(w.pending[:idx], w.pending[idx+1:]...)
	return nil
}

// mustBeResolved panics if any slot is still open. An open slot on the way
// out means the encoder skipped a Resolve.
func (w *WireBuffer) mustBeResolved() {
	if len(w.pending) != 0 {
		panic(fmt.Sprintf("snmpcodec: %d length slots left unresolved", len(w.pending)))
	}
}

// Truncate drops everything written from n onwards.
func (w *WireBuffer) Truncate(n int) {
	if n < 0 || n > len(w.buf) {
		panic(fmt.Sprintf("snmpcodec: truncate to %d outside [0,%d]", n, len(w.buf)))
	}
	for _, off := range w.pending {
		if off >= n {
			panic(fmt.Sprintf("snmpcodec: truncate to %d drops open slot at %d", n, off))
		}
	}
	w.buf = w.buf[:n]
	if w.rd > n {
		w.rd = n
	}
}

// PatchAt overwrites already written bytes starting at off.
func (w *WireBuffer) PatchAt(off int, b []byte) error {
	if off < 0 || off+len(b) > len(w.buf) {
		return fmt.Errorf("%w: patch of %d bytes at %d", ErrTruncated, len(b), off)
	}
	copy(w.buf[off:], b)
	return nil
}

// Peek returns the next tag without consuming it.
func (w *WireBuffer) Peek() (byte, error) {
	if w.Remaining() == 0 {
		return 0, fmt.Errorf("%w: no tag at %d", ErrTruncated, w.Pos())
	}
	return w.buf[w.rd], nil
}

// ReadTagged consumes one element and returns its tag and contents. The
// contents alias the buffer.
func (w *WireBuffer) ReadTagged() (tag byte, content []byte, err error) {
	tag, _, content, err = w.readElement()
	return tag, content, err
}

// ExpectTagged consumes one element whose tag must be tag.
func (w *WireBuffer) ExpectTagged(tag byte) ([]byte, error) {
	got, err := w.Peek()
	if err != nil {
		return nil, err
	}
	if got != tag {
		return nil, fmt.Errorf("%w: expected %#x at %d, got %#x", ErrMalformedTag, tag, w.Pos(), got)
	}
	_, _, content, err := w.readElement()
	return content, err
}

// ReadNested consumes one element with the given tag and returns a buffer
// over its contents.
func (w *WireBuffer) ReadNested(tag byte) (*WireBuffer, error) {
	got, err := w.Peek()
	if err != nil {
		return nil, err
	}
	if got != tag {
		return nil, fmt.Errorf("%w: expected %#x at %d, got %#x", ErrMalformedTag, tag, w.Pos(), got)
	}
	_, start, content, err := w.readElement()
	if err != nil {
		return nil, err
	}
	sub := NewReadBuffer(content)
	sub.base = start
	return sub, nil
}

// readElement consumes one element and returns its tag, the absolute
// position of its contents and the contents.
func (w *WireBuffer) readElement() (byte, int, []byte, error) {
	if w.Remaining() == 0 {
		return 0, 0, nil, fmt.Errorf("%w: no element at %d", ErrTruncated, w.Pos())
	}
	total, hdr, err := parseLength(w.buf[w.rd:])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("element at %d: %w", w.Pos(), err)
	}
	if total > w.Remaining() {
		return 0, 0, nil, fmt.Errorf("%w: element at %d declares %d bytes, %d remain",
			ErrTruncated, w.Pos(), total, w.Remaining())
	}
	tag := w.buf[w.rd]
	start := w.rd + hdr
	w.rd += total
	return tag, w.base + start, w.buf[start:w.rd], nil
}

// Package buffer holds the growable byte buffer used to assemble request
// payloads and scan response lines whose final size is not known up front.
package buffer

import (
	"bytes"
	"fmt"

	"github.com/valyala/bytebufferpool"

	"github.com/lukaarma/wannabeCurl/errors"
)

const (
	// DefaultIncrement is the step by which Grow raises capacity.
	DefaultIncrement = 1024

	// MaxSize is the largest capacity Grow will allocate.
	MaxSize = 1 << 30
)

var pool bytebufferpool.Pool

// Grow returns b with a capacity of at least required bytes. Capacity is
// raised in steps of increment, starting from cap(b), and the existing
// contents are copied over. When cap(b) already covers required, b is
// returned as is. A non-positive increment selects DefaultIncrement.
func Grow(b []byte, required, increment int) ([]byte, error) {
	if required < 0 || required > MaxSize {
		return b, errors.NewMemoryError(fmt.Sprintf("cannot allocate buffer of %d bytes", required))
	}
	if cap(b) >= required {
		return b, nil
	}
	if increment <= 0 {
		increment = DefaultIncrement
	}

	size := cap(b)
	for size < required {
		size += increment
	}

	grown := make([]byte, len(b), size)
	copy(grown, b)
	return grown, nil
}

// Buffer is a byte buffer whose every append goes through Grow.
type Buffer struct {
	bb        *bytebufferpool.ByteBuffer
	increment int
	limit     int
	pooled    bool
}

// New returns an empty Buffer owned by the caller.
func New(increment int) *Buffer {
	return NewLimited(increment, MaxSize)
}

// NewLimited returns an owned Buffer that refuses to grow past limit bytes.
// A limit outside (0, MaxSize] means MaxSize.
func NewLimited(increment, limit int) *Buffer {
	if limit <= 0 || limit > MaxSize {
		limit = MaxSize
	}
	return &Buffer{bb: &bytebufferpool.ByteBuffer{}, increment: increment, limit: limit}
}

// Acquire returns an empty Buffer taken from the package pool. It must be
// handed back with Release once its bytes are no longer referenced.
func Acquire(increment int) *Buffer {
	bb := pool.Get()
	bb.Reset()
	return &Buffer{bb: bb, increment: increment, limit: MaxSize, pooled: true}
}

// Release returns a pooled buffer. It is a no-op for owned buffers.
func (b *Buffer) Release() {
	if b.pooled && b.bb != nil {
		pool.Put(b.bb)
	}
	b.bb = nil
}

// Ensure makes room for at least n bytes in total.
func (b *Buffer) Ensure(n int) error {
	if n > b.limit {
		return errors.NewMemoryError(fmt.Sprintf("buffer limit of %d bytes exceeded, %d requested", b.limit, n))
	}
	grown, err := Grow(b.bb.B, n, b.increment)
	if err != nil {
		return err
	}
	b.bb.B = grown
	return nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.Ensure(len(b.bb.B) + len(p)); err != nil {
		return 0, err
	}
	return b.bb.Write(p)
}

func (b *Buffer) WriteString(s string) (int, error) {
	if err := b.Ensure(len(b.bb.B) + len(s)); err != nil {
		return 0, err
	}
	return b.bb.WriteString(s)
}

func (b *Buffer) WriteByte(c byte) error {
	if err := b.Ensure(len(b.bb.B) + 1); err != nil {
		return err
	}
	return b.bb.WriteByte(c)
}

// HasSuffix reports whether the buffered bytes end with suffix.
func (b *Buffer) HasSuffix(suffix []byte) bool {
	return bytes.HasSuffix(b.bb.B, suffix)
}

// Bytes returns the buffered bytes. For pooled buffers the slice is only
// valid until Release.
func (b *Buffer) Bytes() []byte { return b.bb.B }

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int { return len(b.bb.B) }

// Cap returns the current capacity.
func (b *Buffer) Cap() int { return cap(b.bb.B) }

// Detach copies the buffered bytes into a new slice of exact length.
func (b *Buffer) Detach() []byte {
	out := make([]byte, len(b.bb.B))
	copy(out, b.bb.B)
	return out
}

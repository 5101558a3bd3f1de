package packet

// Cursor is a read position over an immutable byte slice.
// Slices returned by Read are views into the underlying buffer; nothing is
// copied. A Cursor must not be shared between goroutines.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Capacity returns the total number of bytes in the buffer.
func (c *Cursor) Capacity() int {
	return len(c.buf)
}

// Offset returns the number of bytes already read.
func (c *Cursor) Offset() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// CanRead reports whether n more bytes can be read.
// Returns ErrInvalidArgument if n is less than 1.
func (c *Cursor) CanRead(n int) (bool, error) {
	if n < 1 {
		return false, ErrInvalidArgument
	}
	return n <= c.Remaining(), nil
}

// Read returns the next n bytes and advances the cursor.
// Fails with an *UnderrunError if fewer than n bytes remain.
func (c *Cursor) Read(n int) ([]byte, error) {
	ok, err := c.CanRead(n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &UnderrunError{Requested: n, Available: c.Remaining()}
	}

	begin := c.pos
	c.pos += n
	return c.buf[begin:c.pos:c.pos], nil
}

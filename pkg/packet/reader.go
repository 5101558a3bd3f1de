package packet

// Reader reads MQTT data types from the payload of a single packet.
// MQTT 3.1.1 Section 1.5
type Reader struct {
	Cursor
}

// NewReader creates a reader over the remaining-length payload of a packet.
func NewReader(buf []byte) *Reader {
	return &Reader{Cursor: Cursor{buf: buf}}
}

// ReadOneByteInteger reads a single byte.
func (r *Reader) ReadOneByteInteger() (byte, error) {
	b, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadTwoByteInteger reads a big-endian 16-bit integer.
func (r *Reader) ReadTwoByteInteger() (uint16, error) {
	msb, err := r.ReadOneByteInteger()
	if err != nil {
		return 0, err
	}
	lsb, err := r.ReadOneByteInteger()
	if err != nil {
		return 0, err
	}
	return uint16(msb)<<8 | uint16(lsb), nil
}

// ReadFourByteInteger reads a big-endian 32-bit integer.
func (r *Reader) ReadFourByteInteger() (uint32, error) {
	msb, err := r.ReadTwoByteInteger()
	if err != nil {
		return 0, err
	}
	lsb, err := r.ReadTwoByteInteger()
	if err != nil {
		return 0, err
	}
	return uint32(msb)<<16 | uint32(lsb), nil
}

// ReadVariableByteInteger reads a Variable Byte Integer.
// Errors match ErrMalformedVarInt.
func (r *Reader) ReadVariableByteInteger() (uint32, error) {
	value, n, err := DecodeVarInt(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return value, nil
}

// ReadBytes reads exactly n raw bytes. n == 0 returns an empty slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	return r.Read(n)
}

// ReadRest reads every remaining byte.
func (r *Reader) ReadRest() []byte {
	b, _ := r.ReadBytes(r.Remaining())
	return b
}

// ReadBinaryData reads a two-byte length followed by that many bytes.
// Failures are wrapped in a *Error of kind ErrDataRead.
func (r *Reader) ReadBinaryData() ([]byte, error) {
	start := r.pos
	data, err := r.readData()
	if err != nil {
		return nil, wrapError(ErrDataRead, err, "binary data at offset %d", start)
	}
	return data, nil
}

// ReadString reads a length-prefixed MQTT UTF-8 encoded string.
// Failures are wrapped in a *Error of kind ErrDataRead.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	data, err := r.readData()
	if err == nil {
		var s string
		if s, err = DecodeUTF8String(data); err == nil {
			return s, nil
		}
	}
	return "", wrapError(ErrDataRead, err, "string at offset %d", start)
}

// ReadStringPair reads two consecutive strings, a name and a value.
func (r *Reader) ReadStringPair() (name, value string, err error) {
	if name, err = r.ReadString(); err != nil {
		return "", "", err
	}
	if value, err = r.ReadString(); err != nil {
		return "", "", err
	}
	return name, value, nil
}

func (r *Reader) readData() ([]byte, error) {
	n, err := r.ReadTwoByteInteger()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

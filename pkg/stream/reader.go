// Package stream frames MQTT control packets out of a byte stream and hands
// each frame to the packet decoder.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/bromq-dev/mqttparse/pkg/packet"
)

// DefaultBufferSize is the initial size of the read buffer.
const DefaultBufferSize = 4096

const minBufferSize = 1024

// Frame is one control packet split into its fixed header and the
// remaining-length bytes that follow it.
type Frame struct {
	Header packet.FixedHeader

	// Payload holds exactly Header.RemainingLength bytes. It is owned by the
	// caller.
	Payload []byte

	// Size is the number of bytes the frame occupied on the wire.
	Size int
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxPacketSize limits the total size of a frame, fixed header included.
// Larger frames fail with ErrPacketTooLarge before their payload is read.
// Zero leaves only the protocol limit.
func WithMaxPacketSize(n uint32) Option {
	return func(r *Reader) {
		r.maxPacketSize = n
	}
}

// WithBufferSize sets the initial read buffer size.
func WithBufferSize(n int) Option {
	return func(r *Reader) {
		if n < minBufferSize {
			n = minBufferSize
		}
		r.buf = make([]byte, n)
	}
}

// Reader reads MQTT packets from an io.Reader.
// A Reader must not be used from more than one goroutine.
type Reader struct {
	r             io.Reader
	buf           []byte
	pos           int
	end           int
	maxPacketSize uint32
	varint        VarIntDecoder
}

// NewReader creates a new packet reader.
func NewReader(r io.Reader, opts ...Option) *Reader {
	rd := &Reader{r: r}
	for _, opt := range opts {
		opt(rd)
	}
	if rd.buf == nil {
		rd.buf = make([]byte, DefaultBufferSize)
	}
	return rd
}

// fill reads more data into the buffer.
func (r *Reader) fill() error {
	// Shift remaining data to the beginning
	if r.pos > 0 {
		copy(r.buf, r.buf[r.pos:r.end])
		r.end -= r.pos
		r.pos = 0
	}

	// Grow buffer if needed
	if r.end == len(r.buf) {
		newBuf := make([]byte, len(r.buf)*2)
		copy(newBuf, r.buf)
		r.buf = newBuf
	}

	n, err := r.r.Read(r.buf[r.end:])
	if n > 0 {
		r.end += n
	}
	return err
}

// available returns the number of unread bytes in the buffer.
func (r *Reader) available() int {
	return r.end - r.pos
}

// readByte returns the next byte. midFrame turns an EOF into
// io.ErrUnexpectedEOF.
func (r *Reader) readByte(midFrame bool) (byte, error) {
	for r.available() < 1 {
		if err := r.fill(); err != nil {
			if r.available() > 0 {
				break
			}
			if errors.Is(err, io.EOF) && midFrame {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadFrame reads the next frame from the stream.
//
// A stream that ends cleanly between frames returns io.EOF; one that ends
// inside a frame returns io.ErrUnexpectedEOF. A malformed remaining length
// matches packet.ErrMalformedVarInt.
func (r *Reader) ReadFrame() (Frame, error) {
	first, err := r.readByte(false)
	if err != nil {
		return Frame{}, err
	}

	r.varint.Reset()
	var remainingLength uint32
	for {
		b, err := r.readByte(true)
		if err != nil {
			return Frame{}, err
		}
		v, done, err := r.varint.TakeByte(b)
		if err != nil {
			return Frame{}, err
		}
		if done {
			remainingLength = v
			break
		}
	}

	h := packet.FixedHeader{
		Type:            packet.Type(first >> 4),
		Flags:           first & 0x0F,
		RemainingLength: remainingLength,
	}
	size := 1 + r.varint.Len() + int(remainingLength)

	if r.maxPacketSize > 0 && uint64(size) > uint64(r.maxPacketSize) {
		return Frame{}, fmt.Errorf("%w: %s frame is %d bytes, limit %d", ErrPacketTooLarge, h.Type, size, r.maxPacketSize)
	}

	// The payload is a private copy. It grows only as bytes arrive, so a
	// declared length alone never sizes an allocation.
	need := int(remainingLength)
	payload := make([]byte, 0, min(need, len(r.buf)))
	for len(payload) < need {
		if r.available() == 0 {
			if err := r.fill(); err != nil && r.available() == 0 {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				return Frame{}, err
			}
		}
		n := min(need-len(payload), r.available())
		payload = append(payload, r.buf[r.pos:r.pos+n]...)
		r.pos += n
	}

	return Frame{Header: h, Payload: payload, Size: size}, nil
}

// ReadPacket reads and decodes the next packet.
// Decoding failures are returned as produced by packet.Parse.
func (r *Reader) ReadPacket() (packet.Packet, error) {
	f, err := r.ReadFrame()
	if err != nil {
		return nil, err
	}
	return packet.Parse(f.Header, f.Payload)
}

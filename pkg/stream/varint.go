package stream

import "github.com/bromq-dev/mqttparse/pkg/packet"

// VarIntDecoder decodes a Variable Byte Integer one byte at a time, for
// input that arrives in pieces. It applies the same rules as
// packet.DecodeVarInt. The zero value is ready to use.
type VarIntDecoder struct {
	value      uint32
	multiplier uint32
	n          int
	done       bool
	err        error
}

// TakeByte feeds the next byte. done is true once the terminating byte has
// been seen, and value is then the decoded integer.
func (d *VarIntDecoder) TakeByte(b byte) (value uint32, done bool, err error) {
	if d.err != nil {
		return 0, false, d.err
	}
	if d.done {
		return 0, false, ErrAlreadyDecoded
	}

	if d.n == 0 {
		d.multiplier = 1
	}
	d.value += uint32(b&0x7F) * d.multiplier
	d.n++

	if b&0x80 == 0 {
		if d.n > packet.VarIntSize(d.value) {
			d.err = packet.ErrVarIntOverlong
			return 0, false, d.err
		}
		d.done = true
		return d.value, true, nil
	}

	if d.n == 4 {
		d.err = packet.ErrVarIntTooManyBytes
		return 0, false, d.err
	}
	d.multiplier *= 128
	return 0, false, nil
}

// Len returns the number of bytes consumed so far.
func (d *VarIntDecoder) Len() int {
	return d.n
}

// Reset clears the decoder for the next integer.
func (d *VarIntDecoder) Reset() {
	*d = VarIntDecoder{}
}

package packet

import "encoding/binary"

// EncodeVarInt encodes a variable byte integer into buf and returns the number of bytes written.
// Returns 0 if the value is too large or the buffer is too small.
// The encoding always uses the minimum number of bytes.
// MQTT 3.1.1 Section 2.2.3
func EncodeVarInt(buf []byte, value uint32) int {
	if value > MaxVarInt {
		return 0
	}

	i := 0
	for {
		if i >= len(buf) {
			return 0
		}
		encodedByte := byte(value % 128)
		value /= 128
		if value > 0 {
			encodedByte |= 0x80
		}
		buf[i] = encodedByte
		i++
		if value == 0 {
			break
		}
	}
	return i
}

// AppendVarInt appends the minimal encoding of value to dst.
func AppendVarInt(dst []byte, value uint32) ([]byte, error) {
	if value > MaxVarInt {
		return dst, ErrPacketTooLarge
	}
	var tmp [4]byte
	n := EncodeVarInt(tmp[:], value)
	return append(dst, tmp[:n]...), nil
}

// DecodeVarInt decodes a variable byte integer from the start of buf.
// Returns the value and the number of bytes consumed.
//
// Errors match ErrMalformedVarInt and are one of ErrVarIntIncomplete (buf
// ended before a terminating byte), ErrVarIntTooManyBytes (no terminating
// byte within 4 bytes) or ErrVarIntOverlong (more bytes than the value needs).
// MQTT 3.1.1 Section 2.2.3
func DecodeVarInt(buf []byte) (value uint32, n int, err error) {
	var multiplier uint32 = 1

	for i := 0; i < 4; i++ {
		if i >= len(buf) {
			return 0, 0, ErrVarIntIncomplete
		}
		encodedByte := buf[i]
		value += uint32(encodedByte&0x7F) * multiplier

		if encodedByte&0x80 == 0 {
			n = i + 1
			if n > VarIntSize(value) {
				return 0, 0, ErrVarIntOverlong
			}
			return value, n, nil
		}
		multiplier *= 128
	}

	return 0, 0, ErrVarIntTooManyBytes
}

// VarIntSize returns the number of bytes needed to encode a value as a variable byte integer.
func VarIntSize(value uint32) int {
	switch {
	case value <= 0x7F:
		return 1
	case value <= 0x3FFF:
		return 2
	case value <= 0x1FFFFF:
		return 3
	default:
		return 4
	}
}

// EncodeUint16 encodes a 16-bit unsigned integer in big-endian order.
// Returns 2 on success, 0 if buffer is too small.
func EncodeUint16(buf []byte, value uint16) int {
	if len(buf) < 2 {
		return 0
	}
	binary.BigEndian.PutUint16(buf, value)
	return 2
}

// EncodeUint32 encodes a 32-bit unsigned integer in big-endian order.
// Returns 4 on success, 0 if buffer is too small.
func EncodeUint32(buf []byte, value uint32) int {
	if len(buf) < 4 {
		return 0
	}
	binary.BigEndian.PutUint32(buf, value)
	return 4
}

// EncodeString encodes a UTF-8 string with a 2-byte length prefix.
// Returns the number of bytes written, or 0 on error. Strings that the
// decoder would reject are refused.
// MQTT 3.1.1 Section 1.5.3
func EncodeString(buf []byte, s string) int {
	if _, err := DecodeUTF8String([]byte(s)); err != nil {
		return 0
	}
	return EncodeBytes(buf, []byte(s))
}

// EncodeBytes encodes binary data with a 2-byte length prefix.
// Returns the number of bytes written, or 0 on error.
func EncodeBytes(buf []byte, data []byte) int {
	dlen := len(data)
	if dlen > 65535 {
		return 0
	}
	if len(buf) < 2+dlen {
		return 0
	}
	binary.BigEndian.PutUint16(buf, uint16(dlen))
	copy(buf[2:], data)
	return 2 + dlen
}

// FixedHeaderSize calculates the size of the fixed header for a given remaining length.
func FixedHeaderSize(remainingLength uint32) int {
	return 1 + VarIntSize(remainingLength)
}

// EncodeFixedHeader encodes the fixed header into buf.
// Returns the number of bytes written, or 0 on error.
func EncodeFixedHeader(buf []byte, packetType Type, flags byte, remainingLength uint32) int {
	if len(buf) < 1 {
		return 0
	}
	buf[0] = byte(packetType)<<4 | (flags & 0x0F)
	n := EncodeVarInt(buf[1:], remainingLength)
	if n == 0 {
		return 0
	}
	return 1 + n
}

// DecodeFixedHeader decodes the fixed header from the start of buf.
// Returns the header and the number of bytes consumed. The packet type is not
// checked here; that is the dispatcher's job.
func DecodeFixedHeader(buf []byte) (FixedHeader, int, error) {
	if len(buf) < 2 {
		return FixedHeader{}, 0, &UnderrunError{Requested: 2, Available: len(buf)}
	}

	remainingLength, n, err := DecodeVarInt(buf[1:])
	if err != nil {
		return FixedHeader{}, 0, err
	}

	return FixedHeader{
		Type:            Type(buf[0] >> 4),
		Flags:           buf[0] & 0x0F,
		RemainingLength: remainingLength,
	}, 1 + n, nil
}

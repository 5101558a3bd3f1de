package packet

import "fmt"

// SubackCode is a SUBACK return code.
// MQTT 3.1.1 Section 3.9.3
type SubackCode byte

// SUBACK return codes.
const (
	SubackMaxQoS0 SubackCode = 0x00 // Success, maximum QoS 0
	SubackMaxQoS1 SubackCode = 0x01 // Success, maximum QoS 1
	SubackMaxQoS2 SubackCode = 0x02 // Success, maximum QoS 2
	SubackFailure SubackCode = 0x80
)

// Valid returns true if c is one of the four allowed return codes
// [MQTT-3.9.3-2].
func (c SubackCode) Valid() bool {
	return c <= SubackMaxQoS2 || c == SubackFailure
}

func (c SubackCode) String() string {
	switch c {
	case SubackMaxQoS0, SubackMaxQoS1, SubackMaxQoS2:
		return fmt.Sprintf("granted QoS%d", byte(c))
	case SubackFailure:
		return "failure"
	default:
		return fmt.Sprintf("reserved(0x%02X)", byte(c))
	}
}

// Suback represents an MQTT SUBACK packet carrying a single return code.
// MQTT 3.1.1 Section 3.9
type Suback struct {
	PacketID   uint16
	ReturnCode SubackCode
}

// Type returns TypeSuback.
func (s *Suback) Type() Type {
	return TypeSuback
}

// Identifier returns the packet identifier.
func (s *Suback) Identifier() uint16 {
	return s.PacketID
}

// EncodedSize returns the total size of the encoded SUBACK packet.
func (s *Suback) EncodedSize() int {
	return 5
}

// Encode encodes the SUBACK packet into buf.
func (s *Suback) Encode(buf []byte) int {
	if len(buf) < 5 {
		return 0
	}
	pos := EncodeFixedHeader(buf, TypeSuback, 0, 3)
	pos += EncodeUint16(buf[pos:], s.PacketID)
	buf[pos] = byte(s.ReturnCode)
	return pos + 1
}

// ParseSuback parses a SUBACK packet.
func ParseSuback(h FixedHeader, r *Reader) (Packet, error) {
	if err := expectType(h, TypeSuback); err != nil {
		return nil, err
	}
	if err := expectFlags(h, 0, ""); err != nil {
		return nil, err
	}
	if err := expectExactLength(h, r, 3); err != nil {
		return nil, err
	}

	id, err := readPacketID(r)
	if err != nil {
		return nil, err
	}

	code, err := r.ReadOneByteInteger()
	if err != nil {
		return nil, err
	}
	if !SubackCode(code).Valid() {
		return nil, newError(ErrInvalidReturnCode, "MQTT-3.9.3-2", "SUBACK return code %d", code)
	}

	if err := expectConsumed(r); err != nil {
		return nil, err
	}
	return &Suback{PacketID: id, ReturnCode: SubackCode(code)}, nil
}

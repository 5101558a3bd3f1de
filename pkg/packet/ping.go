package packet

// Pingreq represents an MQTT PINGREQ packet.
// MQTT 3.1.1 Section 3.12
type Pingreq struct{}

// Pingresp represents an MQTT PINGRESP packet.
// MQTT 3.1.1 Section 3.13
type Pingresp struct{}

// Disconnect represents an MQTT DISCONNECT packet.
// MQTT 3.1.1 Section 3.14
type Disconnect struct{}

func (p *Pingreq) Type() Type    { return TypePingreq }
func (p *Pingresp) Type() Type   { return TypePingresp }
func (d *Disconnect) Type() Type { return TypeDisconnect }

// EncodedSize returns 2: fixed header only, remaining length = 0.
func (p *Pingreq) EncodedSize() int    { return 2 }
func (p *Pingresp) EncodedSize() int   { return 2 }
func (d *Disconnect) EncodedSize() int { return 2 }

// Encode encodes the PINGREQ packet into buf.
func (p *Pingreq) Encode(buf []byte) int {
	return encodeEmptyPacket(buf, TypePingreq)
}

// Encode encodes the PINGRESP packet into buf.
func (p *Pingresp) Encode(buf []byte) int {
	return encodeEmptyPacket(buf, TypePingresp)
}

// Encode encodes the DISCONNECT packet into buf.
func (d *Disconnect) Encode(buf []byte) int {
	return encodeEmptyPacket(buf, TypeDisconnect)
}

func encodeEmptyPacket(buf []byte, t Type) int {
	if len(buf) < 2 {
		return 0
	}
	buf[0] = byte(t) << 4
	buf[1] = 0 // Remaining length
	return 2
}

// ParseEmpty parses PINGREQ, PINGRESP and DISCONNECT, which have no variable
// header or payload.
func ParseEmpty(h FixedHeader, r *Reader) (Packet, error) {
	if err := expectType(h, TypePingreq, TypePingresp, TypeDisconnect); err != nil {
		return nil, err
	}
	if err := expectFlags(h, 0, ""); err != nil {
		return nil, err
	}
	if err := expectExactLength(h, r, 0); err != nil {
		return nil, err
	}

	switch h.Type {
	case TypePingreq:
		return &Pingreq{}, nil
	case TypePingresp:
		return &Pingresp{}, nil
	default:
		return &Disconnect{}, nil
	}
}

package packet

// Puback represents an MQTT PUBACK packet (QoS 1 acknowledgment).
// MQTT 3.1.1 Section 3.4
type Puback struct {
	PacketID uint16
}

// Pubrec represents an MQTT PUBREC packet (QoS 2 part 1).
// MQTT 3.1.1 Section 3.5
type Pubrec struct {
	PacketID uint16
}

// Pubrel represents an MQTT PUBREL packet (QoS 2 part 2).
// MQTT 3.1.1 Section 3.6
type Pubrel struct {
	PacketID uint16
}

// Pubcomp represents an MQTT PUBCOMP packet (QoS 2 part 3).
// MQTT 3.1.1 Section 3.7
type Pubcomp struct {
	PacketID uint16
}

// Unsuback represents an MQTT UNSUBACK packet.
// MQTT 3.1.1 Section 3.11
type Unsuback struct {
	PacketID uint16
}

func (p *Puback) Type() Type   { return TypePuback }
func (p *Pubrec) Type() Type   { return TypePubrec }
func (p *Pubrel) Type() Type   { return TypePubrel }
func (p *Pubcomp) Type() Type  { return TypePubcomp }
func (p *Unsuback) Type() Type { return TypeUnsuback }

func (p *Puback) Identifier() uint16   { return p.PacketID }
func (p *Pubrec) Identifier() uint16   { return p.PacketID }
func (p *Pubrel) Identifier() uint16   { return p.PacketID }
func (p *Pubcomp) Identifier() uint16  { return p.PacketID }
func (p *Unsuback) Identifier() uint16 { return p.PacketID }

// Fixed header (2) + packet identifier (2).
const identifierPacketSize = 4

func (p *Puback) EncodedSize() int   { return identifierPacketSize }
func (p *Pubrec) EncodedSize() int   { return identifierPacketSize }
func (p *Pubrel) EncodedSize() int   { return identifierPacketSize }
func (p *Pubcomp) EncodedSize() int  { return identifierPacketSize }
func (p *Unsuback) EncodedSize() int { return identifierPacketSize }

// Encode encodes the PUBACK packet into buf.
func (p *Puback) Encode(buf []byte) int {
	return encodeIdentifierPacket(buf, TypePuback, 0, p.PacketID)
}

// Encode encodes the PUBREC packet into buf.
func (p *Pubrec) Encode(buf []byte) int {
	return encodeIdentifierPacket(buf, TypePubrec, 0, p.PacketID)
}

// Encode encodes the PUBREL packet into buf.
func (p *Pubrel) Encode(buf []byte) int {
	return encodeIdentifierPacket(buf, TypePubrel, PubrelFlags, p.PacketID)
}

// Encode encodes the PUBCOMP packet into buf.
func (p *Pubcomp) Encode(buf []byte) int {
	return encodeIdentifierPacket(buf, TypePubcomp, 0, p.PacketID)
}

// Encode encodes the UNSUBACK packet into buf.
func (p *Unsuback) Encode(buf []byte) int {
	return encodeIdentifierPacket(buf, TypeUnsuback, 0, p.PacketID)
}

func encodeIdentifierPacket(buf []byte, t Type, flags byte, id uint16) int {
	if len(buf) < identifierPacketSize {
		return 0
	}
	pos := EncodeFixedHeader(buf, t, flags, 2)
	return pos + EncodeUint16(buf[pos:], id)
}

// ParsePacketWithIdentifier parses the packets whose only content is a
// Packet Identifier: PUBACK, PUBREC, PUBREL, PUBCOMP and UNSUBACK.
func ParsePacketWithIdentifier(h FixedHeader, r *Reader) (Packet, error) {
	if err := expectType(h, TypePuback, TypePubrec, TypePubrel, TypePubcomp, TypeUnsuback); err != nil {
		return nil, err
	}

	// Bits 3,2,1 and 0 of the fixed header in the PUBREL Control Packet are
	// reserved and MUST be set to 0,0,1 and 0 respectively [MQTT-3.6.1-1].
	if h.Type == TypePubrel {
		if err := expectFlags(h, PubrelFlags, "MQTT-3.6.1-1"); err != nil {
			return nil, err
		}
	} else if err := expectFlags(h, 0, ""); err != nil {
		return nil, err
	}

	if err := expectExactLength(h, r, 2); err != nil {
		return nil, err
	}

	id, err := readPacketID(r)
	if err != nil {
		return nil, err
	}
	if err := expectConsumed(r); err != nil {
		return nil, err
	}

	switch h.Type {
	case TypePuback:
		return &Puback{PacketID: id}, nil
	case TypePubrec:
		return &Pubrec{PacketID: id}, nil
	case TypePubrel:
		return &Pubrel{PacketID: id}, nil
	case TypePubcomp:
		return &Pubcomp{PacketID: id}, nil
	default:
		return &Unsuback{PacketID: id}, nil
	}
}

package packet

// Publish represents an MQTT PUBLISH packet.
// MQTT 3.1.1 Section 3.3
type Publish struct {
	// Fixed header flags
	Dup    bool // Duplicate delivery flag
	QoS    QoS  // Quality of Service level
	Retain bool // Retain flag

	// Variable header
	TopicName string // Topic name
	PacketID  uint16 // Packet identifier (only for QoS > 0)

	// Payload
	Payload []byte
}

// Type returns TypePublish.
func (p *Publish) Type() Type {
	return TypePublish
}

// Identifier returns the packet identifier, 0 at QoS 0.
func (p *Publish) Identifier() uint16 {
	return p.PacketID
}

// flags returns the fixed header flags for this PUBLISH packet.
func (p *Publish) flags() byte {
	var flags byte
	if p.Retain {
		flags |= PublishFlagRetain
	}
	flags |= byte(p.QoS) << 1
	if p.Dup {
		flags |= PublishFlagDup
	}
	return flags
}

func (p *Publish) remainingLength() int {
	n := 2 + len(p.TopicName)
	if p.QoS > QoS0 {
		n += 2
	}
	return n + len(p.Payload)
}

// EncodedSize returns the total size of the encoded PUBLISH packet.
func (p *Publish) EncodedSize() int {
	remainingLength := p.remainingLength()
	return FixedHeaderSize(uint32(remainingLength)) + remainingLength
}

// Encode encodes the PUBLISH packet into buf.
// Returns the number of bytes written, or 0 on error.
func (p *Publish) Encode(buf []byte) int {
	if len(buf) < p.EncodedSize() {
		return 0
	}
	// Refuse what ParsePublish would reject.
	if !p.QoS.Valid() || !validTopicName(p.TopicName) {
		return 0
	}
	if p.QoS == QoS0 && p.Dup || p.QoS > QoS0 && p.PacketID == 0 {
		return 0
	}

	pos := EncodeFixedHeader(buf, TypePublish, p.flags(), uint32(p.remainingLength()))
	if pos == 0 {
		return 0
	}

	n := EncodeString(buf[pos:], p.TopicName)
	if n == 0 {
		return 0
	}
	pos += n

	if p.QoS > QoS0 {
		pos += EncodeUint16(buf[pos:], p.PacketID)
	}

	copy(buf[pos:], p.Payload)
	pos += len(p.Payload)

	return pos
}

// ParsePublish parses a PUBLISH packet.
//
// At QoS 0 there is no Packet Identifier and every byte after the topic name
// is application message. An identifier sent anyway at QoS 0 cannot be told
// apart from the message and ends up in Payload.
func ParsePublish(h FixedHeader, r *Reader) (Packet, error) {
	if err := expectType(h, TypePublish); err != nil {
		return nil, err
	}

	p := &Publish{
		Retain: h.Flags&PublishFlagRetain != 0,
		QoS:    QoS(h.Flags >> 1 & 0x03),
		Dup:    h.Flags&PublishFlagDup != 0,
	}

	// A PUBLISH Packet MUST NOT have both QoS bits set to 1 [MQTT-3.3.1-4].
	if !p.QoS.Valid() {
		return nil, newError(ErrInvalidQoS, "MQTT-3.3.1-4", "0b11 in fixed header flags 0b%04b", h.Flags)
	}

	// The DUP flag MUST be set to 0 for all QoS 0 messages [MQTT-3.3.1-2].
	if p.QoS == QoS0 && p.Dup {
		return nil, newError(ErrInvalidFlags, "MQTT-3.3.1-2", "DUP set on a QoS 0 message")
	}

	// Topic length (2) + topic (at least 1) + identifier (2 when QoS > 0)
	minLength := 3
	if p.QoS > QoS0 {
		minLength = 5
	}
	if err := expectMinLength(h, r, minLength); err != nil {
		return nil, err
	}

	var err error
	if p.TopicName, err = readTopicName(r); err != nil {
		return nil, err
	}

	if p.QoS > QoS0 {
		if p.PacketID, err = readPacketID(r); err != nil {
			return nil, err
		}
	}

	p.Payload = r.ReadRest()

	if err := expectConsumed(r); err != nil {
		return nil, err
	}
	return p, nil
}

package packet

// Unsubscribe represents an MQTT UNSUBSCRIBE packet.
// MQTT 3.1.1 Section 3.10
type Unsubscribe struct {
	PacketID     uint16
	TopicFilters []string
}

// Type returns TypeUnsubscribe.
func (u *Unsubscribe) Type() Type {
	return TypeUnsubscribe
}

// Identifier returns the packet identifier.
func (u *Unsubscribe) Identifier() uint16 {
	return u.PacketID
}

func (u *Unsubscribe) remainingLength() int {
	n := 2
	for _, filter := range u.TopicFilters {
		n += 2 + len(filter)
	}
	return n
}

// EncodedSize returns the total size of the encoded UNSUBSCRIBE packet.
func (u *Unsubscribe) EncodedSize() int {
	remainingLength := u.remainingLength()
	return FixedHeaderSize(uint32(remainingLength)) + remainingLength
}

// Encode encodes the UNSUBSCRIBE packet into buf.
// Returns the number of bytes written, or 0 on error.
func (u *Unsubscribe) Encode(buf []byte) int {
	if len(buf) < u.EncodedSize() {
		return 0
	}
	if u.PacketID == 0 || len(u.TopicFilters) == 0 {
		return 0
	}
	for _, filter := range u.TopicFilters {
		if len(filter) == 0 {
			return 0
		}
	}

	pos := EncodeFixedHeader(buf, TypeUnsubscribe, UnsubscribeFlags, uint32(u.remainingLength()))
	if pos == 0 {
		return 0
	}
	pos += EncodeUint16(buf[pos:], u.PacketID)

	for _, filter := range u.TopicFilters {
		n := EncodeString(buf[pos:], filter)
		if n == 0 {
			return 0
		}
		pos += n
	}
	return pos
}

// ParseUnsubscribe parses an UNSUBSCRIBE packet.
func ParseUnsubscribe(h FixedHeader, r *Reader) (Packet, error) {
	if err := expectType(h, TypeUnsubscribe); err != nil {
		return nil, err
	}
	if err := expectFlags(h, UnsubscribeFlags, "MQTT-3.10.1-1"); err != nil {
		return nil, err
	}
	// Packet identifier (2) + filter length (2) + filter (at least 1)
	if err := expectMinLength(h, r, 5); err != nil {
		return nil, err
	}

	id, err := readPacketID(r)
	if err != nil {
		return nil, err
	}
	u := &Unsubscribe{PacketID: id}

	for r.Remaining() > 0 {
		filter, err := readTopicFilter(r)
		if err != nil {
			return nil, err
		}
		u.TopicFilters = append(u.TopicFilters, filter)
	}

	// The Payload of an UNSUBSCRIBE packet MUST contain at least one Topic
	// Filter [MQTT-3.10.3-2].
	if len(u.TopicFilters) == 0 {
		return nil, newError(ErrEmptySubscriptionList, "MQTT-3.10.3-2", "UNSUBSCRIBE without topic filters")
	}

	if err := expectConsumed(r); err != nil {
		return nil, err
	}
	return u, nil
}

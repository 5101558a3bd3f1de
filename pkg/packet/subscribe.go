package packet

// Subscription represents a single topic subscription.
type Subscription struct {
	TopicFilter string
	QoS         QoS // Requested QoS
}

// Subscribe represents an MQTT SUBSCRIBE packet.
// MQTT 3.1.1 Section 3.8
type Subscribe struct {
	PacketID      uint16
	Subscriptions []Subscription
}

// Type returns TypeSubscribe.
func (s *Subscribe) Type() Type {
	return TypeSubscribe
}

// Identifier returns the packet identifier.
func (s *Subscribe) Identifier() uint16 {
	return s.PacketID
}

func (s *Subscribe) remainingLength() int {
	n := 2
	for _, sub := range s.Subscriptions {
		n += 2 + len(sub.TopicFilter) + 1
	}
	return n
}

// EncodedSize returns the total size of the encoded SUBSCRIBE packet.
func (s *Subscribe) EncodedSize() int {
	remainingLength := s.remainingLength()
	return FixedHeaderSize(uint32(remainingLength)) + remainingLength
}

// Encode encodes the SUBSCRIBE packet into buf.
// Returns the number of bytes written, or 0 on error.
func (s *Subscribe) Encode(buf []byte) int {
	if len(buf) < s.EncodedSize() {
		return 0
	}
	if s.PacketID == 0 || len(s.Subscriptions) == 0 {
		return 0
	}
	for _, sub := range s.Subscriptions {
		if len(sub.TopicFilter) == 0 || !sub.QoS.Valid() {
			return 0
		}
	}

	pos := EncodeFixedHeader(buf, TypeSubscribe, SubscribeFlags, uint32(s.remainingLength()))
	if pos == 0 {
		return 0
	}
	pos += EncodeUint16(buf[pos:], s.PacketID)

	for _, sub := range s.Subscriptions {
		n := EncodeString(buf[pos:], sub.TopicFilter)
		if n == 0 {
			return 0
		}
		pos += n
		buf[pos] = byte(sub.QoS)
		pos++
	}
	return pos
}

// ParseSubscribe parses a SUBSCRIBE packet.
func ParseSubscribe(h FixedHeader, r *Reader) (Packet, error) {
	if err := expectType(h, TypeSubscribe); err != nil {
		return nil, err
	}
	if err := expectFlags(h, SubscribeFlags, "MQTT-3.8.1-1"); err != nil {
		return nil, err
	}
	// Packet identifier (2) + filter length (2) + filter (at least 1) + QoS (1)
	if err := expectMinLength(h, r, 6); err != nil {
		return nil, err
	}

	id, err := readPacketID(r)
	if err != nil {
		return nil, err
	}
	s := &Subscribe{PacketID: id}

	for r.Remaining() > 0 {
		filter, err := readTopicFilter(r)
		if err != nil {
			return nil, err
		}

		// The upper 6 bits of the Requested QoS byte are reserved and the
		// Server MUST treat a non-zero value as malformed [MQTT-3-8.3-4].
		b, err := r.ReadOneByteInteger()
		if err != nil {
			return nil, err
		}
		if !QoS(b).Valid() {
			return nil, newError(ErrInvalidQoS, "MQTT-3-8.3-4", "requested QoS 0x%02X for %q", b, filter)
		}

		s.Subscriptions = append(s.Subscriptions, Subscription{TopicFilter: filter, QoS: QoS(b)})
	}

	// The payload of a SUBSCRIBE packet MUST contain at least one Topic
	// Filter / QoS pair [MQTT-3.8.3-3].
	if len(s.Subscriptions) == 0 {
		return nil, newError(ErrEmptySubscriptionList, "MQTT-3.8.3-3", "SUBSCRIBE without topic filters")
	}

	if err := expectConsumed(r); err != nil {
		return nil, err
	}
	return s, nil
}

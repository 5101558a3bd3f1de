package packet

// Parser parses the remaining-length payload of one packet type.
// The reader holds exactly the bytes following the fixed header.
type Parser func(FixedHeader, *Reader) (Packet, error)

// parsers is indexed by packet type. Slot 0 stays nil: type 0 is reserved
// and type 15 is outside the table.
var parsers = [15]Parser{
	TypeConnect:     ParseConnect,
	TypeConnack:     ParseConnack,
	TypePublish:     ParsePublish,
	TypePuback:      ParsePacketWithIdentifier,
	TypePubrec:      ParsePacketWithIdentifier,
	TypePubrel:      ParsePacketWithIdentifier,
	TypePubcomp:     ParsePacketWithIdentifier,
	TypeSubscribe:   ParseSubscribe,
	TypeSuback:      ParseSuback,
	TypeUnsubscribe: ParseUnsubscribe,
	TypeUnsuback:    ParsePacketWithIdentifier,
	TypePingreq:     ParseEmpty,
	TypePingresp:    ParseEmpty,
	TypeDisconnect:  ParseEmpty,
}

// ParserFor returns the parser registered for t.
// Returns ErrUnknownPacketType for 0, 15 and anything larger.
func ParserFor(t Type) (Parser, error) {
	if int(t) >= len(parsers) || parsers[t] == nil {
		return nil, newError(ErrUnknownPacketType, "", "%d", byte(t))
	}
	return parsers[t], nil
}

// Parse decodes the payload of a framed packet described by h.
// payload must hold exactly the bytes after the fixed header. The returned
// packet may reference payload; callers that reuse the buffer must copy it
// first.
func Parse(h FixedHeader, payload []byte) (Packet, error) {
	parse, err := ParserFor(h.Type)
	if err != nil {
		return nil, err
	}

	if int64(h.RemainingLength) != int64(len(payload)) {
		return nil, newError(ErrInvalidRemainingLength, "", "declared %d in fixed header, %d byte(s) supplied", h.RemainingLength, len(payload))
	}

	r := NewReader(payload)
	p, err := parse(h, r)
	if err != nil {
		return nil, err
	}
	if err := expectConsumed(r); err != nil {
		return nil, err
	}
	return p, nil
}

// Decode parses one complete packet, fixed header included, from the start
// of buf. It returns the packet and the number of bytes consumed.
func Decode(buf []byte) (Packet, int, error) {
	h, n, err := DecodeFixedHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if !h.Type.Valid() {
		return nil, 0, newError(ErrUnknownPacketType, "", "%d", byte(h.Type))
	}

	end := n + int(h.RemainingLength)
	if end > len(buf) {
		return nil, 0, &UnderrunError{Requested: int(h.RemainingLength), Available: len(buf) - n}
	}

	p, err := Parse(h, buf[n:end:end])
	if err != nil {
		return nil, 0, err
	}
	return p, end, nil
}

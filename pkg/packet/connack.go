package packet

// ConnackCode is the CONNACK return code.
// MQTT 3.1.1 Section 3.2.2.3
type ConnackCode byte

// CONNACK return codes.
const (
	ConnectionAccepted          ConnackCode = 0x00
	UnacceptableProtocolVersion ConnackCode = 0x01
	IdentifierRejected          ConnackCode = 0x02
	ServerUnavailable           ConnackCode = 0x03
	BadUserNameOrPassword       ConnackCode = 0x04
	NotAuthorized               ConnackCode = 0x05
)

// Valid returns true if c is one of the defined return codes.
func (c ConnackCode) Valid() bool {
	return c <= NotAuthorized
}

func (c ConnackCode) String() string {
	switch c {
	case ConnectionAccepted:
		return "connection accepted"
	case UnacceptableProtocolVersion:
		return "unacceptable protocol version"
	case IdentifierRejected:
		return "identifier rejected"
	case ServerUnavailable:
		return "server unavailable"
	case BadUserNameOrPassword:
		return "bad user name or password"
	case NotAuthorized:
		return "not authorized"
	default:
		return "reserved"
	}
}

// Connack represents an MQTT CONNACK packet.
// MQTT 3.1.1 Section 3.2
type Connack struct {
	SessionPresent bool
	ReturnCode     ConnackCode
}

// Type returns TypeConnack.
func (c *Connack) Type() Type {
	return TypeConnack
}

// EncodedSize returns the total size of the encoded CONNACK packet.
func (c *Connack) EncodedSize() int {
	return 4
}

// Encode encodes the CONNACK packet into buf.
// Returns the number of bytes written, or 0 on error.
func (c *Connack) Encode(buf []byte) int {
	if len(buf) < 4 {
		return 0
	}
	pos := EncodeFixedHeader(buf, TypeConnack, 0, 2)
	if c.SessionPresent {
		buf[pos] = 0x01
	} else {
		buf[pos] = 0x00
	}
	buf[pos+1] = byte(c.ReturnCode)
	return pos + 2
}

// ParseConnack parses a CONNACK packet.
func ParseConnack(h FixedHeader, r *Reader) (Packet, error) {
	if err := expectType(h, TypeConnack); err != nil {
		return nil, err
	}
	if err := expectFlags(h, 0, ""); err != nil {
		return nil, err
	}
	if err := expectExactLength(h, r, 2); err != nil {
		return nil, err
	}

	// Bits 7-1 are reserved and MUST be set to 0.
	ack, err := r.ReadOneByteInteger()
	if err != nil {
		return nil, err
	}
	if ack > 0x01 {
		return nil, newError(ErrInvalidConnackFlags, "", "0x%02X, only bit 0 may be set", ack)
	}

	code, err := r.ReadOneByteInteger()
	if err != nil {
		return nil, err
	}
	if !ConnackCode(code).Valid() {
		return nil, newError(ErrInvalidReturnCode, "", "CONNACK return code %d", code)
	}

	c := &Connack{SessionPresent: ack == 0x01, ReturnCode: ConnackCode(code)}
	if err := expectConsumed(r); err != nil {
		return nil, err
	}
	return c, nil
}

package packet

// ProtocolInfo is the protocol name and level from the CONNECT variable header.
type ProtocolInfo struct {
	Name  string // Must be "MQTT"
	Level byte   // 4 for v3.1.1
}

// ConnectFlags is the decoded CONNECT flags byte.
// MQTT 3.1.1 Section 3.1.2.3
type ConnectFlags struct {
	UserName     bool
	Password     bool
	WillRetain   bool
	WillQoS      QoS
	WillFlag     bool
	CleanSession bool
}

// ConnectPayload holds the CONNECT payload fields. A field is only
// meaningful when the matching flag is set.
type ConnectPayload struct {
	ClientID    string
	WillTopic   string
	WillMessage []byte
	UserName    string
	Password    []byte
}

// Connect represents an MQTT CONNECT packet.
// MQTT 3.1.1 Section 3.1
type Connect struct {
	Protocol  ProtocolInfo
	Flags     ConnectFlags
	KeepAlive uint16 // seconds
	Payload   ConnectPayload
}

// Type returns TypeConnect.
func (c *Connect) Type() Type {
	return TypeConnect
}

// connectFlagBits defines the bit positions in the connect flags byte.
const (
	connectFlagReserved     = 1 << 0
	connectFlagCleanSession = 1 << 1
	connectFlagWill         = 1 << 2
	connectFlagWillQoSMask  = 3 << 3
	connectFlagWillRetain   = 1 << 5
	connectFlagPassword     = 1 << 6
	connectFlagUserName     = 1 << 7
)

// minConnectLength is protocol name length (2) + "MQTT" (4) + level (1) +
// connect flags (1) + keep alive (2) + client identifier length (2).
const minConnectLength = 12

// maxClientIDLength is the longest Client Identifier a server must accept.
const maxClientIDLength = 23

func (f ConnectFlags) byte() byte {
	var b byte
	if f.CleanSession {
		b |= connectFlagCleanSession
	}
	if f.WillFlag {
		b |= connectFlagWill
	}
	b |= byte(f.WillQoS) << 3 & connectFlagWillQoSMask
	if f.WillRetain {
		b |= connectFlagWillRetain
	}
	if f.Password {
		b |= connectFlagPassword
	}
	if f.UserName {
		b |= connectFlagUserName
	}
	return b
}

func (c *Connect) remainingLength() int {
	// Variable header: protocol name (2 + len) + level (1) + flags (1) + keepalive (2)
	n := 2 + len(c.Protocol.Name) + 1 + 1 + 2

	n += 2 + len(c.Payload.ClientID)
	if c.Flags.WillFlag {
		n += 2 + len(c.Payload.WillTopic)
		n += 2 + len(c.Payload.WillMessage)
	}
	if c.Flags.UserName {
		n += 2 + len(c.Payload.UserName)
	}
	if c.Flags.Password {
		n += 2 + len(c.Payload.Password)
	}
	return n
}

// EncodedSize returns the total size of the encoded CONNECT packet.
func (c *Connect) EncodedSize() int {
	remainingLength := c.remainingLength()
	return FixedHeaderSize(uint32(remainingLength)) + remainingLength
}

// Encode encodes the CONNECT packet into buf.
// Returns the number of bytes written, or 0 on error.
func (c *Connect) Encode(buf []byte) int {
	if len(buf) < c.EncodedSize() {
		return 0
	}

	pos := EncodeFixedHeader(buf, TypeConnect, 0, uint32(c.remainingLength()))
	if pos == 0 {
		return 0
	}

	fields := []func() int{
		func() int { return EncodeString(buf[pos:], c.Protocol.Name) },
		func() int { buf[pos] = c.Protocol.Level; return 1 },
		func() int { buf[pos] = c.Flags.byte(); return 1 },
		func() int { return EncodeUint16(buf[pos:], c.KeepAlive) },
		func() int { return EncodeString(buf[pos:], c.Payload.ClientID) },
	}
	if c.Flags.WillFlag {
		fields = append(fields,
			func() int { return EncodeString(buf[pos:], c.Payload.WillTopic) },
			func() int { return EncodeBytes(buf[pos:], c.Payload.WillMessage) },
		)
	}
	if c.Flags.UserName {
		fields = append(fields, func() int { return EncodeString(buf[pos:], c.Payload.UserName) })
	}
	if c.Flags.Password {
		fields = append(fields, func() int { return EncodeBytes(buf[pos:], c.Payload.Password) })
	}

	for _, encode := range fields {
		n := encode()
		if n == 0 {
			return 0
		}
		pos += n
	}
	return pos
}

// ParseConnect parses a CONNECT packet.
// Payload fields are read in the mandated order: Client Identifier, Will
// Topic, Will Message, User Name, Password [MQTT-3.1.3-1].
func ParseConnect(h FixedHeader, r *Reader) (Packet, error) {
	if err := expectType(h, TypeConnect); err != nil {
		return nil, err
	}
	if err := expectFlags(h, 0, ""); err != nil {
		return nil, err
	}
	if err := expectMinLength(h, r, minConnectLength); err != nil {
		return nil, err
	}

	c := &Connect{}

	// Variable header
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	if name != ProtocolName {
		return nil, newError(ErrInvalidProtocolName, "MQTT-3.1.2-1", "%q, expected %q", name, ProtocolName)
	}
	c.Protocol.Name = name

	level, err := r.ReadOneByteInteger()
	if err != nil {
		return nil, err
	}
	if level != ProtocolLevel {
		return nil, newError(ErrInvalidProtocolLevel, "MQTT-3.1.2-2", "%d, expected %d", level, ProtocolLevel)
	}
	c.Protocol.Level = level

	if c.Flags, err = parseConnectFlags(r); err != nil {
		return nil, err
	}

	if c.KeepAlive, err = r.ReadTwoByteInteger(); err != nil {
		return nil, err
	}

	// Payload
	if c.Payload, err = parseConnectPayload(r, c.Flags); err != nil {
		return nil, err
	}

	// If the Client supplies a zero-byte ClientId, the Client MUST also set
	// CleanSession to 1 [MQTT-3.1.3-7].
	if len(c.Payload.ClientID) == 0 && !c.Flags.CleanSession {
		return nil, newError(ErrInvalidClientID, "MQTT-3.1.3-7", "zero-byte client identifier requires CleanSession set to 1")
	}

	// Flags that claim a field is absent while its bytes are still present
	// surface here.
	if err := expectConsumed(r); err != nil {
		return nil, err
	}

	return c, nil
}

func parseConnectFlags(r *Reader) (ConnectFlags, error) {
	b, err := r.ReadOneByteInteger()
	if err != nil {
		return ConnectFlags{}, err
	}

	qos := QoS(b & connectFlagWillQoSMask >> 3)
	if !qos.Valid() {
		return ConnectFlags{}, newError(ErrInvalidQoS, "MQTT-3.1.2-14", "will QoS %d must not be 3", qos)
	}

	// The Server MUST validate that the reserved flag in the CONNECT Control
	// Packet is set to zero and disconnect the Client if it is not zero.
	if b&connectFlagReserved != 0 {
		return ConnectFlags{}, newError(ErrInvalidConnectFlags, "MQTT-3.1.2-3", "reserved flag is set")
	}

	f := ConnectFlags{
		UserName:     b&connectFlagUserName != 0,
		Password:     b&connectFlagPassword != 0,
		WillRetain:   b&connectFlagWillRetain != 0,
		WillQoS:      qos,
		WillFlag:     b&connectFlagWill != 0,
		CleanSession: b&connectFlagCleanSession != 0,
	}

	// If the Will Flag is set to 0 the Will QoS and Will Retain fields MUST be
	// set to zero [MQTT-3.1.2-11], [MQTT-3.1.2-13], [MQTT-3.1.2-15].
	if !f.WillFlag && (f.WillQoS != QoS0 || f.WillRetain) {
		return ConnectFlags{}, newError(ErrInvalidConnectFlags, "MQTT-3.1.2-11", "will QoS %d and will retain %t without will flag", f.WillQoS, f.WillRetain)
	}

	// If the User Name Flag is set to 0, the Password Flag MUST be set to 0.
	if !f.UserName && f.Password {
		return ConnectFlags{}, newError(ErrInvalidConnectFlags, "MQTT-3.1.2-22", "password flag without user name flag")
	}

	return f, nil
}

func parseConnectPayload(r *Reader, f ConnectFlags) (ConnectPayload, error) {
	var (
		p   ConnectPayload
		err error
	)

	if p.ClientID, err = r.ReadString(); err != nil {
		return p, err
	}
	if err := validateClientID(p.ClientID); err != nil {
		return p, err
	}

	if f.WillFlag {
		if p.WillTopic, err = r.ReadString(); err != nil {
			return p, err
		}
		if p.WillMessage, err = r.ReadBinaryData(); err != nil {
			return p, err
		}
	}
	if f.UserName {
		if p.UserName, err = r.ReadString(); err != nil {
			return p, err
		}
	}
	if f.Password {
		if p.Password, err = r.ReadBinaryData(); err != nil {
			return p, err
		}
	}
	return p, nil
}

// The Server MUST allow ClientIds which are between 1 and 23 UTF-8 encoded
// bytes in length, and that contain only the characters
// "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ".
// The zero-length case is checked against CleanSession by the caller.
func validateClientID(id string) error {
	if len(id) == 0 {
		return nil
	}
	if len(id) > maxClientIDLength {
		return newError(ErrInvalidClientID, "MQTT-3.1.3-5", "%d bytes, at most %d allowed", len(id), maxClientIDLength)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return newError(ErrInvalidClientID, "MQTT-3.1.3-5", "%q contains disallowed character %q", id, c)
		}
	}
	return nil
}

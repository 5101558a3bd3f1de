package packet

// Packet is the interface implemented by all MQTT control packets.
type Packet interface {
	// Type returns the packet type.
	Type() Type

	// Encode encodes the packet into buf.
	// Returns the number of bytes written, or 0 on error.
	Encode(buf []byte) int

	// EncodedSize returns the total size of the encoded packet.
	EncodedSize() int
}

// Identified is implemented by packets that carry a Packet Identifier.
type Identified interface {
	Packet
	Identifier() uint16
}

// Marshal encodes p into a newly allocated slice.
func Marshal(p Packet) ([]byte, error) {
	buf := make([]byte, p.EncodedSize())
	n := p.Encode(buf)
	if n == 0 {
		return nil, ErrShortBuffer
	}
	return buf[:n], nil
}

package packet

import "strings"

// Header and postcondition checks shared by the parsers.

func expectType(h FixedHeader, allowed ...Type) error {
	for _, t := range allowed {
		if h.Type == t {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, t := range allowed {
		names[i] = t.String()
	}
	return newError(ErrInvalidPacketType, "", "%s, expected %s", h.Type, strings.Join(names, ", "))
}

// Where a flag bit is marked as "Reserved" it MUST be set to the listed value
// [MQTT-2.2.2-1].
func expectFlags(h FixedHeader, want byte, rule string) error {
	if h.Flags != want {
		if rule == "" {
			rule = "MQTT-2.2.2-1"
		}
		return newError(ErrInvalidFlags, rule, "0b%04b, should be 0b%04b for %s", h.Flags, want, h.Type)
	}
	return nil
}

func expectExactLength(h FixedHeader, r *Reader, n int) error {
	if int64(h.RemainingLength) != int64(n) {
		return newError(ErrInvalidRemainingLength, "", "declared %d in fixed header, should be %d", h.RemainingLength, n)
	}
	if r.Remaining() != n {
		return newError(ErrInvalidRemainingLength, "", "actual %d in buffer, should be %d", r.Remaining(), n)
	}
	return nil
}

func expectMinLength(h FixedHeader, r *Reader, min int) error {
	if r.Remaining() < min {
		return newError(ErrInvalidRemainingLength, "", "actual %d in buffer, should be at least %d", r.Remaining(), min)
	}
	if int64(h.RemainingLength) < int64(min) {
		return newError(ErrInvalidRemainingLength, "", "declared %d in fixed header, should be at least %d", h.RemainingLength, min)
	}
	if int64(h.RemainingLength) != int64(r.Remaining()) {
		return newError(ErrInvalidRemainingLength, "", "declared %d and actual %d do not match", h.RemainingLength, r.Remaining())
	}
	return nil
}

func expectConsumed(r *Reader) error {
	if n := r.Remaining(); n != 0 {
		return newError(ErrUnreadTrailingBytes, "", "%d unread byte(s) in the packet", n)
	}
	return nil
}

// validTopicName reports whether readTopicName would accept topic once
// decoded. The UTF-8 rules are left to EncodeString.
func validTopicName(topic string) bool {
	return len(topic) > 0 && !strings.ContainsAny(topic, "+#")
}

// SUBSCRIBE, UNSUBSCRIBE, and PUBLISH (in cases where QoS > 0) Control
// Packets MUST contain a non-zero 16-bit Packet Identifier [MQTT-2.3.1-1].
func readPacketID(r *Reader) (uint16, error) {
	id, err := r.ReadTwoByteInteger()
	if err != nil {
		return 0, wrapError(ErrInvalidPacketID, err, "missing")
	}
	if id == 0 {
		return 0, newError(ErrInvalidPacketID, "MQTT-2.3.1-1", "0")
	}
	return id, nil
}

// All Topic Names and Topic Filters MUST be at least one character long
// [MQTT-4.7.3-1].
func readTopicFilter(r *Reader) (string, error) {
	topic, err := r.ReadString()
	if err != nil {
		return "", wrapError(ErrInvalidTopicFilter, err, "while parsing topic filter")
	}
	if len(topic) == 0 {
		return "", newError(ErrInvalidTopicFilter, "MQTT-4.7.3-1", "length 0, should be at least 1")
	}
	return topic, nil
}

// The Topic Name in the PUBLISH Packet MUST NOT contain wildcard characters
// [MQTT-3.3.2-2].
func readTopicName(r *Reader) (string, error) {
	topic, err := r.ReadString()
	if err != nil {
		return "", wrapError(ErrInvalidTopicName, err, "while parsing topic name")
	}
	if len(topic) == 0 {
		return "", newError(ErrInvalidTopicName, "MQTT-4.7.3-1", "length 0, should be at least 1")
	}
	if strings.ContainsAny(topic, "+#") {
		return "", newError(ErrInvalidTopicName, "MQTT-3.3.2-2", "%q contains a wildcard character", topic)
	}
	return topic, nil
}

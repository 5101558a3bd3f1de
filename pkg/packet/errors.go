package packet

import (
	"errors"
	"fmt"
)

// Sentinel errors for packet parsing and encoding.
// Every error returned by this package matches exactly one structural kind
// below via errors.Is; parse failures additionally carry a *Error with the
// normative rule that was violated.
var (
	// ErrBufferUnderrun indicates fewer bytes were available than requested.
	ErrBufferUnderrun = errors.New("buffer underrun")

	// ErrInvalidArgument indicates a read or write of a non-positive byte count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedVarInt indicates a malformed Variable Byte Integer.
	ErrMalformedVarInt = errors.New("malformed variable byte integer")

	// ErrMalformedUTF8 indicates a string that is not well-formed MQTT UTF-8.
	ErrMalformedUTF8 = errors.New("malformed UTF-8 string")

	// ErrDataRead wraps any failure raised while reading a length-prefixed field.
	ErrDataRead = errors.New("data reading error")

	// ErrInvalidPacketType indicates a parser was handed a packet of the wrong type.
	ErrInvalidPacketType = errors.New("invalid packet type")

	// ErrUnknownPacketType indicates a packet type outside 1..14.
	ErrUnknownPacketType = errors.New("unknown packet type")

	// ErrInvalidFlags indicates invalid fixed header flags for the packet type.
	ErrInvalidFlags = errors.New("invalid packet flags")

	// ErrInvalidRemainingLength indicates a declared or actual remaining length
	// that the packet type does not allow.
	ErrInvalidRemainingLength = errors.New("invalid remaining length")

	// ErrUnreadTrailingBytes indicates bytes left over after the last field.
	ErrUnreadTrailingBytes = errors.New("unread trailing bytes")

	// ErrInvalidProtocolName indicates an unrecognized protocol name.
	ErrInvalidProtocolName = errors.New("invalid protocol name")

	// ErrInvalidProtocolLevel indicates an unsupported protocol level.
	ErrInvalidProtocolLevel = errors.New("invalid protocol level")

	// ErrInvalidConnectFlags indicates an inconsistent CONNECT flags byte.
	ErrInvalidConnectFlags = errors.New("invalid connect flags")

	// ErrInvalidClientID indicates a Client Identifier the server must reject.
	ErrInvalidClientID = errors.New("invalid client identifier")

	// ErrInvalidQoS indicates an invalid QoS level.
	ErrInvalidQoS = errors.New("invalid QoS level")

	// ErrInvalidConnackFlags indicates reserved CONNACK acknowledge flags were set.
	ErrInvalidConnackFlags = errors.New("invalid connect acknowledge flags")

	// ErrInvalidReturnCode indicates an unknown CONNACK or SUBACK return code.
	ErrInvalidReturnCode = errors.New("invalid return code")

	// ErrInvalidTopicName indicates an invalid topic name.
	ErrInvalidTopicName = errors.New("invalid topic name")

	// ErrInvalidTopicFilter indicates an invalid topic filter.
	ErrInvalidTopicFilter = errors.New("invalid topic filter")

	// ErrInvalidPacketID indicates a zero packet identifier.
	ErrInvalidPacketID = errors.New("invalid packet identifier")

	// ErrEmptySubscriptionList indicates a SUBSCRIBE or UNSUBSCRIBE without topics.
	ErrEmptySubscriptionList = errors.New("empty subscription list")

	// ErrPacketTooLarge indicates a value exceeds the maximum encodable size.
	ErrPacketTooLarge = errors.New("packet too large")

	// ErrShortBuffer indicates insufficient buffer space for encoding.
	ErrShortBuffer = errors.New("buffer too short")
)

// Variable Byte Integer failure modes.
var (
	ErrVarIntIncomplete   = fmt.Errorf("%w: incomplete sequence", ErrMalformedVarInt)
	ErrVarIntTooManyBytes = fmt.Errorf("%w: too many bytes", ErrMalformedVarInt)
	ErrVarIntOverlong     = fmt.Errorf("%w: overlong encoding", ErrMalformedVarInt)
)

// MQTT UTF-8 failure modes.
var (
	ErrInvalidUTF8Sequence = fmt.Errorf("%w: invalid byte sequence", ErrMalformedUTF8)
	ErrDisallowedCodePoint = fmt.Errorf("%w: code point not allowed by MQTT", ErrMalformedUTF8)
)

// Error is a parse failure attributed to a packet-level rule.
type Error struct {
	// Kind is one of the package sentinels, e.g. ErrInvalidClientID.
	Kind error

	// Rule is the normative statement identifier, e.g. "MQTT-3.1.3-7".
	// Empty when the check has no numbered statement.
	Rule string

	// Msg describes the offending value.
	Msg string

	// Cause is the underlying failure, if any.
	Cause error
}

func (e *Error) Error() string {
	s := e.Kind.Error()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Rule != "" {
		s += " [" + e.Rule + "]"
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, rule, format string, args ...any) *Error {
	return &Error{Kind: kind, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// UnderrunError reports a read past the end of a buffer.
type UnderrunError struct {
	Requested int
	Available int
}

func (e *UnderrunError) Error() string {
	return fmt.Sprintf("cannot read %d bytes, only %d byte(s) available", e.Requested, e.Available)
}

// Is matches ErrBufferUnderrun.
func (e *UnderrunError) Is(target error) bool {
	return target == ErrBufferUnderrun
}

// CodePointError reports a code point excluded from MQTT UTF-8 strings.
type CodePointError struct {
	CodePoint rune
	Offset    int // byte offset in the encoded string
	Reason    string
}

func (e *CodePointError) Error() string {
	return fmt.Sprintf("%v: %s U+%04X at byte %d", ErrDisallowedCodePoint, e.Reason, e.CodePoint, e.Offset)
}

// Unwrap returns ErrDisallowedCodePoint.
func (e *CodePointError) Unwrap() error {
	return ErrDisallowedCodePoint
}

// kinds lists the sentinels KindOf falls back to, most specific first.
var kinds = []error{
	ErrVarIntIncomplete,
	ErrVarIntTooManyBytes,
	ErrVarIntOverlong,
	ErrMalformedVarInt,
	ErrInvalidUTF8Sequence,
	ErrDisallowedCodePoint,
	ErrMalformedUTF8,
	ErrPacketTooLarge,
	ErrBufferUnderrun,
	ErrInvalidArgument,
	ErrShortBuffer,
}

// KindOf returns the sentinel that classifies err, or nil if err did not
// come from this package. For a *Error this is its Kind.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// RuleOf returns the normative statement identifier carried by err, or "".
func RuleOf(err error) string {
	var perr *Error
	for errors.As(err, &perr) {
		if perr.Rule != "" {
			return perr.Rule
		}
		if perr.Cause == nil {
			break
		}
		err = perr.Cause
	}
	return ""
}

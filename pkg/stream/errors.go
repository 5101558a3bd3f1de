package stream

import (
	"errors"

	"github.com/bromq-dev/mqttparse/pkg/packet"
)

var (
	// ErrAlreadyDecoded is returned when a VarIntDecoder is fed after it
	// finished. Call Reset to reuse it.
	ErrAlreadyDecoded = errors.New("variable byte integer already decoded")

	// ErrPacketTooLarge is returned when a frame exceeds the configured
	// maximum packet size. It matches packet.ErrPacketTooLarge.
	ErrPacketTooLarge = packet.ErrPacketTooLarge
)

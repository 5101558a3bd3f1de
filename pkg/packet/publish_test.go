package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePublish(t *testing.T, flags byte, payload []byte) (*Publish, error) {
	t.Helper()
	p, err := Parse(header(TypePublish, flags, payload), payload)
	if err != nil {
		return nil, err
	}
	pub, ok := p.(*Publish)
	require.True(t, ok, "got %T", p)
	return pub, nil
}

func TestParsePublishQoS0(t *testing.T) {
	p, err := parsePublish(t, 0x00, cat(lp("a/b"), []byte("hi")))
	require.NoError(t, err)
	assert.Equal(t, &Publish{TopicName: "a/b", Payload: []byte("hi")}, p)
	assert.Zero(t, p.Identifier())
}

func TestParsePublishQoS0EmptyPayload(t *testing.T) {
	p, err := parsePublish(t, 0x00, lp("a"))
	require.NoError(t, err)
	assert.NotNil(t, p.Payload)
	assert.Empty(t, p.Payload)
}

func TestParsePublishQoS0StrayIdentifier(t *testing.T) {
	// An identifier sent at QoS 0 is indistinguishable from the message.
	p, err := parsePublish(t, 0x00, cat(lp("a"), []byte{0x00, 0x01}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01}, p.Payload)
}

func TestParsePublishWithIdentifier(t *testing.T) {
	p, err := parsePublish(t, 0x0D, cat(lp("sensors/t1"), []byte{0x00, 0x0A}, []byte("21.5")))
	require.NoError(t, err)
	assert.Equal(t, &Publish{
		Dup:       true,
		QoS:       QoS2,
		Retain:    true,
		TopicName: "sensors/t1",
		PacketID:  10,
		Payload:   []byte("21.5"),
	}, p)
}

func TestParsePublishErrors(t *testing.T) {
	tests := []struct {
		name    string
		flags   byte
		payload []byte
		kind    error
		rule    string
	}{
		{"QoS 3", 0x06, cat(lp("a"), []byte{0, 1}), ErrInvalidQoS, "MQTT-3.3.1-4"},
		{"DUP at QoS 0", 0x08, lp("a"), ErrInvalidFlags, "MQTT-3.3.1-2"},
		{"zero identifier", 0x02, cat(lp("a"), []byte{0, 0}), ErrInvalidPacketID, "MQTT-2.3.1-1"},
		{"single-level wildcard", 0x00, lp("a/+"), ErrInvalidTopicName, "MQTT-3.3.2-2"},
		{"multi-level wildcard", 0x02, cat(lp("#"), []byte{0, 1}), ErrInvalidTopicName, "MQTT-3.3.2-2"},
		{"empty topic", 0x00, cat(lp(""), []byte("x")), ErrInvalidTopicName, "MQTT-4.7.3-1"},
		{"QoS 1 too short", 0x02, cat(lp("a"), []byte{0}), ErrInvalidRemainingLength, ""},
		{"QoS 0 too short", 0x00, []byte{0x00, 0x01}, ErrInvalidRemainingLength, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePublish(t, tt.flags, tt.payload)
			requireRule(t, err, tt.kind, tt.rule)
		})
	}
}

func TestParsePublishTopicTooLong(t *testing.T) {
	payload := []byte{0x00, 0x09, 'a', 'b'}
	_, err := parsePublish(t, 0x00, payload)
	require.ErrorIs(t, err, ErrInvalidTopicName)
	assert.ErrorIs(t, err, ErrDataRead)
	assert.ErrorIs(t, err, ErrBufferUnderrun)
}

package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePacketWithIdentifier(t *testing.T) {
	tests := []struct {
		typ   Type
		flags byte
		want  Packet
	}{
		{TypePuback, 0, &Puback{PacketID: 0x0102}},
		{TypePubrec, 0, &Pubrec{PacketID: 0x0102}},
		{TypePubrel, PubrelFlags, &Pubrel{PacketID: 0x0102}},
		{TypePubcomp, 0, &Pubcomp{PacketID: 0x0102}},
		{TypeUnsuback, 0, &Unsuback{PacketID: 0x0102}},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			payload := []byte{0x01, 0x02}
			p, err := Parse(header(tt.typ, tt.flags, payload), payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)

			id, ok := p.(Identified)
			require.True(t, ok)
			assert.Equal(t, uint16(0x0102), id.Identifier())
		})
	}
}

func TestParsePacketWithIdentifierErrors(t *testing.T) {
	id := []byte{0x00, 0x01}

	_, err := Parse(header(TypePubrel, 0, id), id)
	requireRule(t, err, ErrInvalidFlags, "MQTT-3.6.1-1")

	_, err = Parse(header(TypePuback, 0x02, id), id)
	requireRule(t, err, ErrInvalidFlags, "MQTT-2.2.2-1")

	zero := []byte{0x00, 0x00}
	_, err = Parse(header(TypePubcomp, 0, zero), zero)
	requireRule(t, err, ErrInvalidPacketID, "MQTT-2.3.1-1")

	long := []byte{0x00, 0x01, 0x00}
	_, err = Parse(header(TypePubrec, 0, long), long)
	assert.ErrorIs(t, err, ErrInvalidRemainingLength)

	_, err = ParsePacketWithIdentifier(header(TypeSuback, 0, id), NewReader(id))
	assert.ErrorIs(t, err, ErrInvalidPacketType)
}

func TestParseConnack(t *testing.T) {
	for _, tt := range []struct {
		payload []byte
		want    *Connack
	}{
		{[]byte{0x00, 0x00}, &Connack{ReturnCode: ConnectionAccepted}},
		{[]byte{0x01, 0x00}, &Connack{SessionPresent: true, ReturnCode: ConnectionAccepted}},
		{[]byte{0x00, 0x05}, &Connack{ReturnCode: NotAuthorized}},
	} {
		p, err := Parse(header(TypeConnack, 0, tt.payload), tt.payload)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p)
	}
}

func TestParseConnackErrors(t *testing.T) {
	flags := []byte{0x02, 0x00}
	_, err := Parse(header(TypeConnack, 0, flags), flags)
	assert.ErrorIs(t, err, ErrInvalidConnackFlags)

	code := []byte{0x00, 0x06}
	_, err = Parse(header(TypeConnack, 0, code), code)
	assert.ErrorIs(t, err, ErrInvalidReturnCode)

	long := []byte{0x00, 0x00, 0x00}
	_, err = Parse(header(TypeConnack, 0, long), long)
	assert.ErrorIs(t, err, ErrInvalidRemainingLength)
}

func TestParseEmpty(t *testing.T) {
	for typ, want := range map[Type]Packet{
		TypePingreq:    &Pingreq{},
		TypePingresp:   &Pingresp{},
		TypeDisconnect: &Disconnect{},
	} {
		p, err := Parse(header(typ, 0, nil), nil)
		require.NoError(t, err)
		assert.Equal(t, want, p)

		_, err = Parse(header(typ, 0x01, nil), nil)
		requireRule(t, err, ErrInvalidFlags, "MQTT-2.2.2-1")

		one := []byte{0x00}
		_, err = Parse(header(typ, 0, one), one)
		assert.ErrorIs(t, err, ErrInvalidRemainingLength)
	}
}
